package blockindex

// Cursor walks one term's posting chain in ascending docid order,
// accumulating docid gaps across block boundaries as it goes.
type Cursor struct {
	arena *arena
	slabs slabSizeTable

	term      string
	headBlock uint32
	tailBlock uint32
	docFreq   uint32

	currentBlock   uint32
	currentOffset  int
	gapAccumulator uint32
	currentDocID   uint32
	currentTF      uint32
	blockCount     uint32
	nextGeqCalls   uint32
}

// Cursor returns a new postings cursor over term, already positioned
// on the first posting. An invalid cursor (Valid() == false) is
// returned for a term that has never been inserted.
func (b *Builder) Cursor(term string) *Cursor {
	slot := b.dir.slotFor(term, b.arena.block)
	headIdx := b.dir.get(slot)

	c := &Cursor{arena: b.arena, slabs: b.slabs, term: term}
	if headIdx == EndChain {
		c.headBlock = EndChain
		return c
	}

	head := b.arena.block(headIdx)
	c.headBlock = headIdx
	c.tailBlock = head.TailBlock()
	c.docFreq = head.DocFreq()
	c.currentBlock = headIdx
	c.currentOffset = head.HeadDataOffset()
	c.next()
	return c
}

// Valid reports whether this cursor found the term it was created for.
func (c *Cursor) Valid() bool {
	return c.headBlock != EndChain
}

// DocFreq returns the total number of postings for this term.
func (c *Cursor) DocFreq() uint32 {
	return c.docFreq
}

// DocID returns the docid the cursor currently sits on, or EndChain
// once the chain is exhausted.
func (c *Cursor) DocID() uint32 {
	return c.currentDocID
}

// Freq returns the per-occurrence count (or encoded payload) at the
// cursor's current position.
func (c *Cursor) Freq() uint32 {
	return c.currentTF
}

// Term returns the term this cursor was created for.
func (c *Cursor) Term() string {
	return c.term
}

// NextGeqCalls returns the number of NextGeq calls made against this
// cursor, for -vv diagnostic output in the conjunctive query driver.
func (c *Cursor) NextGeqCalls() uint32 {
	return c.nextGeqCalls
}

// hasData reports whether a byte has been written at offset within
// the logical block at blockIdx, which spans numBlocks physical
// blocks under the cursor's slab policy.
func (c *Cursor) hasData(blockIdx uint32, offset int, numBlocks uint32) bool {
	return Block(c.arena.slab(blockIdx, numBlocks)).HasDataAt(offset)
}

// access decodes a (docgap, freq) pair at offset within the logical
// block at blockIdx, which spans numBlocks physical blocks.
func (c *Cursor) access(blockIdx uint32, offset int, numBlocks uint32) (docgap, freq uint32, stride int) {
	return DecodeMagic(c.arena.slab(blockIdx, numBlocks)[offset:])
}

func (c *Cursor) nextBlock(blockIdx, tailIdx uint32) uint32 {
	if blockIdx == tailIdx {
		return EndChain
	}
	return c.arena.block(blockIdx).NextBlock()
}

// Reset rewinds the cursor back to the start of the chain.
func (c *Cursor) Reset() {
	if !c.Valid() {
		return
	}
	c.currentBlock = c.headBlock
	c.currentOffset = c.arena.block(c.headBlock).HeadDataOffset()
	c.currentDocID = 0
	c.gapAccumulator = 0
	c.blockCount = 0
	c.next()
}

func (c *Cursor) next() {
	numBlocks := c.slabs.blocksAt(c.blockCount)
	slabBytes := int(BlockSize * numBlocks)
	if c.currentOffset < slabBytes && c.hasData(c.currentBlock, c.currentOffset, numBlocks) {
		docgap, freq, stride := c.access(c.currentBlock, c.currentOffset, numBlocks)
		c.currentOffset += stride
		c.currentDocID += docgap
		c.currentTF = freq
		return
	}

	c.blockCount++
	if c.blockCount > MaxSlabIdx {
		c.blockCount = MaxSlabIdx
	}
	nb := c.nextBlock(c.currentBlock, c.tailBlock)
	if nb == EndChain {
		c.currentBlock = EndChain
		c.currentDocID = EndChain
		return
	}
	c.currentBlock = nb
	c.currentOffset = ttPayloadOffset
	docgap, freq, stride := c.access(c.currentBlock, c.currentOffset, c.slabs.blocksAt(c.blockCount))
	c.currentOffset += stride
	c.gapAccumulator += docgap
	c.currentDocID = c.gapAccumulator
	c.currentTF = freq
}

// Next advances the cursor to the next posting in the chain.
func (c *Cursor) Next() {
	c.next()
}

// AdvanceToID walks forward one posting at a time until the cursor
// reaches a docid >= target. Used as the within-block finishing step
// of NextGeq, but also usable directly.
func (c *Cursor) AdvanceToID(target uint32) {
	for c.currentDocID < target {
		c.next()
	}
}

// NextGeq moves the cursor to the first docid >= target, skipping
// whole logical blocks when their first docid is still short of the
// target before falling back to a within-block walk.
func (c *Cursor) NextGeq(target uint32) {
	c.nextGeqCalls++
	if target <= c.currentDocID {
		return
	}

	currentBlock := c.currentBlock
	currentDocID := c.gapAccumulator
	prevBlock := c.currentBlock
	prevDocID := c.gapAccumulator
	blockCount := c.blockCount

	for currentDocID < target && currentBlock != EndChain {
		prevBlock = currentBlock
		prevDocID = currentDocID
		blockCount++
		currentBlock = c.nextBlock(currentBlock, c.tailBlock)
		if currentBlock != EndChain {
			docgap, _, _ := c.access(currentBlock, ttPayloadOffset, c.slabs.blocksAt(blockCount))
			currentDocID += docgap
		}
	}

	if currentDocID > target || currentBlock == EndChain {
		c.currentBlock = prevBlock
		c.gapAccumulator = prevDocID
		c.currentDocID = prevDocID
		c.blockCount = blockCount - 1
	} else {
		c.currentBlock = currentBlock
		c.gapAccumulator = currentDocID
		c.currentDocID = currentDocID
		c.blockCount = blockCount
	}

	offset := ttPayloadOffset
	numBlocks := c.slabs.blocksAt(c.blockCount)
	if c.currentBlock == c.headBlock {
		offset = c.arena.block(c.currentBlock).HeadDataOffset()
		docgap, freq, stride := c.access(c.currentBlock, offset, numBlocks)
		c.currentDocID = docgap
		c.currentTF = freq
		c.currentOffset = offset + stride
	} else {
		_, freq, stride := c.access(c.currentBlock, offset, numBlocks)
		c.currentTF = freq
		c.currentOffset = offset + stride
	}

	if c.blockCount > MaxSlabIdx {
		c.blockCount = MaxSlabIdx
	}
	c.AdvanceToID(target)
}
