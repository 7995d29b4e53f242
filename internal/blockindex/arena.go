package blockindex

import (
	"errors"
	"fmt"
)

// ErrArenaExhausted is returned when the block arena has no room left
// to satisfy an allocation.
var ErrArenaExhausted = errors.New("blockindex: arena exhausted")

// arena is a bump-allocated, zero-initialized byte buffer carved into
// fixed-size physical blocks. Blocks are allocated in consecutive runs
// ("slabs") and are never individually freed.
type arena struct {
	data      []byte
	nextEmpty uint32 // next unused block index
}

func newArena(numBlocks uint32) *arena {
	return &arena{
		data: make([]byte, int(numBlocks)*BlockSize),
	}
}

// capacity returns the total number of physical blocks the arena can hold.
func (a *arena) capacity() uint32 {
	return uint32(len(a.data) / BlockSize)
}

// block returns a view over the physical block at idx.
func (a *arena) block(idx uint32) Block {
	start := int(idx) * BlockSize
	return Block(a.data[start : start+BlockSize])
}

// slab returns the raw contiguous bytes of numBlocks physical blocks
// starting at idx, i.e. one logical block's full storage.
func (a *arena) slab(idx, numBlocks uint32) []byte {
	start := int(idx) * BlockSize
	end := start + int(numBlocks)*BlockSize
	return a.data[start:end]
}

// nextFreeSlot reserves blocksDesired consecutive physical blocks and
// returns the index of the first one.
func (a *arena) nextFreeSlot(blocksDesired uint32) (uint32, error) {
	if uint64(a.nextEmpty)+uint64(blocksDesired) >= uint64(a.capacity()) {
		return 0, fmt.Errorf("%w: need %d blocks, have %d of %d free", ErrArenaExhausted, blocksDesired, a.capacity()-a.nextEmpty, a.capacity())
	}
	next := a.nextEmpty
	a.nextEmpty += blocksDesired
	return next, nil
}

// used returns the number of physical blocks currently allocated.
func (a *arena) used() uint32 {
	return a.nextEmpty
}

// grow extends the arena's backing storage to hold at least numBlocks
// total physical blocks, preserving existing contents.
func (a *arena) grow(numBlocks uint32) {
	if numBlocks <= a.capacity() {
		return
	}
	grown := make([]byte, int(numBlocks)*BlockSize)
	copy(grown, a.data)
	a.data = grown
}
