package blockindex

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Serialize writes the index to w as a raw dump: block count, hash
// table size, the hash table itself, then every in-use block verbatim
// in arena order. Chains are left exactly as they sit in the arena,
// interleaved with whatever other chains happened to grow alongside
// them.
func (b *Builder) Serialize(w io.Writer) error {
	if err := writeUint64(w, uint64(b.arena.used())); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(b.dir.size())); err != nil {
		return err
	}
	if err := writeOffsets(w, b.dir.offsets); err != nil {
		return err
	}
	_, err := w.Write(b.arena.data[:int(b.arena.used())*BlockSize])
	return err
}

// SerializePack writes the index to w the same way as Serialize, but
// first rewrites every chain into one contiguous run of physical
// blocks, in hash-directory order. This mutates the builder's arena
// and directory in place (next pointers and tail-block pointers are
// rewritten to reflect the new, packed layout) — call it only when
// the builder is otherwise done being queried or mutated from its
// current layout.
func (b *Builder) SerializePack(w io.WriteSeeker) error {
	if err := writeUint64(w, uint64(b.arena.used())); err != nil {
		return err
	}
	htSize := uint64(b.dir.size())
	if err := writeUint64(w, htSize); err != nil {
		return err
	}

	hashTableBeginningOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeOffsets(w, b.dir.offsets); err != nil {
		return err
	}

	nextIdx := uint32(0)
	for i := uint32(0); i < b.dir.size(); i++ {
		headBlockIdx := b.dir.offsets[i]
		if headBlockIdx == EndChain {
			continue
		}
		b.dir.offsets[i] = nextIdx

		tailBlock := b.arena.block(headBlockIdx).TailBlock()

		totalBlocksInChain := uint32(0)
		slabIndex := uint32(0)
		blockIdx := headBlockIdx
		for blockIdx != tailBlock {
			next := b.arena.block(blockIdx).NextBlock()
			totalBlocksInChain += b.slabs.blocksAt(slabIndex)
			slabIndex++
			if slabIndex > MaxSlabIdx {
				slabIndex = MaxSlabIdx
			}
			blockIdx = next
		}

		b.arena.block(headBlockIdx).SetTailBlock(totalBlocksInChain + nextIdx)

		blockIdx = headBlockIdx
		slabIndex = 0
		for blockIdx != tailBlock {
			block := b.arena.block(blockIdx)
			next := block.NextBlock()
			slabBlocks := b.slabs.blocksAt(slabIndex)
			nextIdx += slabBlocks
			block.SetNextBlock(nextIdx)
			if _, err := w.Write(b.arena.slab(blockIdx, slabBlocks)); err != nil {
				return err
			}
			blockIdx = next
			slabIndex++
			if slabIndex > MaxSlabIdx {
				slabIndex = MaxSlabIdx
			}
		}
		// The tail block's own pointers never get read, so it needs no patching.
		slabBlocks := b.slabs.blocksAt(slabIndex)
		if _, err := w.Write(b.arena.slab(blockIdx, slabBlocks)); err != nil {
			return err
		}
		nextIdx += slabBlocks
	}

	if _, err := w.Seek(hashTableBeginningOffset, io.SeekStart); err != nil {
		return err
	}
	return writeOffsets(w, b.dir.offsets)
}

// Load reads an index previously written by Serialize or
// SerializePack, rebuilding it around the given slab growth policy.
// The policy must match the one the index was built with, since it
// governs how next/next_geq interpret a chain's logical block sizes.
func Load(r io.Reader, policy SlabPolicy) (*Builder, error) {
	nextEmpty, err := readUint64(r)
	if err != nil {
		return nil, fmt.Errorf("blockindex: read block count: %w", err)
	}
	htSize, err := readUint64(r)
	if err != nil {
		return nil, fmt.Errorf("blockindex: read directory size: %w", err)
	}
	offsets, err := readOffsets(r, htSize)
	if err != nil {
		return nil, fmt.Errorf("blockindex: read directory: %w", err)
	}
	data := make([]byte, int(nextEmpty)*BlockSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("blockindex: read block data: %w", err)
	}
	return &Builder{
		arena:  &arena{data: data, nextEmpty: uint32(nextEmpty)},
		dir:    &directory{offsets: offsets},
		slabs:  newSlabSizeTable(policy),
		policy: policy,
	}, nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeOffsets(w io.Writer, offsets []uint32) error {
	buf := make([]byte, len(offsets)*4)
	for i, v := range offsets {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	_, err := w.Write(buf)
	return err
}

func readOffsets(r io.Reader, count uint64) ([]uint32, error) {
	buf := make([]byte, int(count)*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return offsets, nil
}
