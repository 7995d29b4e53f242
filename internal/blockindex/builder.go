package blockindex

// Builder incrementally constructs a block-chained inverted index. It
// owns a fixed-capacity block arena and a fixed-size hash directory;
// neither grows once built, so callers size both up front. Postings
// must be inserted in ascending docid order for the gap encoding to
// stay valid (I7/P1).
type Builder struct {
	arena  *arena
	dir    *directory
	slabs  slabSizeTable
	policy SlabPolicy
}

// NewBuilder allocates a Builder with room for numBlocks physical
// blocks and a numHashSlots-slot term directory, growing chains
// according to policy.
func NewBuilder(numBlocks, numHashSlots uint32, policy SlabPolicy) *Builder {
	return &Builder{
		arena:  newArena(numBlocks),
		dir:    newDirectory(numHashSlots),
		slabs:  newSlabSizeTable(policy),
		policy: policy,
	}
}

// Policy reports the slab growth policy this builder was constructed with.
func (b *Builder) Policy() SlabPolicy {
	return b.policy
}

// BlocksUsed reports the number of physical blocks allocated so far.
func (b *Builder) BlocksUsed() uint32 {
	return b.arena.used()
}

// DirectoryLoadFactor reports the fraction of hash directory slots in use.
func (b *Builder) DirectoryLoadFactor() float64 {
	return b.dir.loadFactor()
}

// findOrCreateHead locates term's chain head, allocating a fresh
// one-block chain if term has never been seen.
func (b *Builder) findOrCreateHead(term string) (uint32, error) {
	slot := b.dir.slotFor(term, b.arena.block)
	headIdx := b.dir.get(slot)
	if headIdx != EndChain {
		return headIdx, nil
	}
	idx, err := b.arena.nextFreeSlot(b.slabs.blocksAt(0))
	if err != nil {
		return 0, err
	}
	b.dir.set(slot, idx)
	b.arena.block(idx).InitHead(term, idx)
	return idx, nil
}

// Insert records a (docid, term, freq) posting: a document's
// occurrence count for term, without per-occurrence positions.
func (b *Builder) Insert(docid uint32, term string, freq uint32) error {
	headIdx, err := b.findOrCreateHead(term)
	if err != nil {
		return err
	}
	head := b.arena.block(headIdx)

	docGap := docid - head.RecentDocID()
	head.IncrementDocFreq()
	head.SetRecentDocID(docid)

	currentBlockIdx := head.TailBlock()
	writeOffset := head.TailByteOffset()
	bytesRequired := uint32(MagicBytesRequired(docGap, freq))
	slabSizeBytes := BlockSize * b.slabs.blocksAt(uint32(head.GrowthOffset()))

	if uint32(writeOffset)+bytesRequired <= slabSizeBytes {
		writeBlock := b.arena.slab(currentBlockIdx, b.slabs.blocksAt(uint32(head.GrowthOffset())))
		n := EncodeMagic(docGap, freq, writeBlock[writeOffset:])
		head.AdvanceTailByteOffset(n)
		return nil
	}

	prevBlockIdx := currentBlockIdx
	head.IncrementGrowthOffset()
	newIdx, err := b.arena.nextFreeSlot(b.slabs.blocksAt(uint32(head.GrowthOffset())))
	if err != nil {
		return err
	}
	writeBlock := b.arena.block(newIdx)
	writeBlock.InitTail(docid)

	prevBlock := b.arena.block(prevBlockIdx)
	if prevBlockIdx == headIdx {
		docGap = docid
	} else {
		docGap = docid - prevBlock.FirstDocID()
	}
	prevBlock.SetNextBlock(newIdx)

	head.SetTailBlock(newIdx)
	head.SetTailByteOffset(ttPayloadOffset)
	writeOffset = head.TailByteOffset()
	n := EncodeMagic(docGap, freq, writeBlock[writeOffset:])
	head.AdvanceTailByteOffset(n)
	return nil
}

// InsertPositions records a (docid, term, positions) posting,
// encoding each 1-based occurrence position as a gap from the previous
// one, paired with the docid gap. Cursor reads every chain as
// (docgap, freq) pairs and does not decode this layout. Each call must
// supply all of docid's positions for term, with docids ascending
// across calls; neither condition is checked.
func (b *Builder) InsertPositions(docid uint32, term string, positions []uint32) error {
	headIdx, err := b.findOrCreateHead(term)
	if err != nil {
		return err
	}
	head := b.arena.block(headIdx)

	docGap := docid - head.RecentDocID()
	head.IncrementDocFreq()
	// recent_docid is stored one less than docid: a later posting to
	// the same document must not produce a zero gap.
	head.SetRecentDocID(docid - 1)

	lastWordPos := uint32(0)
	for _, pos := range positions {
		wordGap := pos - lastWordPos
		lastWordPos = pos

		currentBlockIdx := head.TailBlock()
		writeOffset := head.TailByteOffset()
		bytesRequired := uint32(MagicBytesRequired(wordGap, docGap))
		slabSizeBytes := BlockSize * b.slabs.blocksAt(uint32(head.GrowthOffset()))

		if uint32(writeOffset)+bytesRequired <= slabSizeBytes {
			writeBlock := b.arena.slab(currentBlockIdx, b.slabs.blocksAt(uint32(head.GrowthOffset())))
			n := EncodeMagic(wordGap, docGap, writeBlock[writeOffset:])
			head.AdvanceTailByteOffset(n)
		} else {
			prevBlockIdx := currentBlockIdx
			head.IncrementGrowthOffset()
			newIdx, err := b.arena.nextFreeSlot(b.slabs.blocksAt(uint32(head.GrowthOffset())))
			if err != nil {
				return err
			}
			writeBlock := b.arena.block(newIdx)
			writeBlock.InitTail(docid)

			prevBlock := b.arena.block(prevBlockIdx)
			if prevBlockIdx == headIdx {
				docGap = docid
			} else {
				// prev tail's first docid might equal this one; +1
				// keeps the b-gap from collapsing to zero.
				docGap = docid - prevBlock.FirstDocID() + 1
			}
			prevBlock.SetNextBlock(newIdx)

			head.SetTailBlock(newIdx)
			head.SetTailByteOffset(ttPayloadOffset)
			writeOffset = head.TailByteOffset()
			n := EncodeVByte(docGap, writeBlock[writeOffset:])
			head.AdvanceTailByteOffset(n)
			writeOffset = head.TailByteOffset()
			n = EncodeVByte(wordGap, writeBlock[writeOffset:])
			head.AdvanceTailByteOffset(n)
		}
		docGap = 1
	}
	return nil
}

// DocFreq returns the number of postings recorded for term, or
// (0, false) if term has never been inserted.
func (b *Builder) DocFreq(term string) (uint32, bool) {
	slot := b.dir.slotFor(term, b.arena.block)
	headIdx := b.dir.get(slot)
	if headIdx == EndChain {
		return 0, false
	}
	return b.arena.block(headIdx).DocFreq(), true
}

// Terms enumerates every term currently in the directory, in
// directory slot order (not insertion order).
func (b *Builder) Terms() []string {
	var terms []string
	for slot := uint32(0); slot < b.dir.size(); slot++ {
		idx := b.dir.get(slot)
		if idx != EndChain {
			terms = append(terms, b.arena.block(idx).Term())
		}
	}
	return terms
}
