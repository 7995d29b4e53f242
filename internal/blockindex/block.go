package blockindex

import "encoding/binary"

// Physical layout constants. A block is BlockSize bytes; head blocks
// carry bookkeeping fields plus the term text before their posting
// bytes start, torso and tail blocks carry only a 4-byte header.
const (
	BlockSize = 64

	headPayloadOffset = 4*4 + 2*1 + 2 // m_next_block, m_tail_block, m_doc_freq, m_recent_docid, m_tail_byte_offset, m_growth_offset, m_word_length
	ttPayloadOffset   = 4             // m_next_block (torso) or m_first_docid (tail)

	headDataBytes = BlockSize - headPayloadOffset
	ttDataBytes   = BlockSize - ttPayloadOffset

	// MaxSlabIdx bounds the growth-offset byte field; slab size tables
	// never grow past this many entries.
	MaxSlabIdx = 255
)

// EndChain marks the absence of a next block, a head's initial
// next_block, and a cursor that has been exhausted.
const EndChain uint32 = 0xFFFFFFFF

// Block is a fixed-size view over one physical block's bytes inside
// the arena. Its fields are interpreted differently depending on
// whether the block is a chain head, torso, or tail; the accessor
// used by the caller selects the interpretation.
type Block []byte

// NextBlock reads the next-block pointer shared by head and torso
// blocks (offset 0).
func (b Block) NextBlock() uint32 {
	return binary.LittleEndian.Uint32(b[0:4])
}

// SetNextBlock writes the next-block pointer (offset 0).
func (b Block) SetNextBlock(v uint32) {
	binary.LittleEndian.PutUint32(b[0:4], v)
}

// FirstDocID reads the uncompressed leading docid stored in a tail
// block (same offset as NextBlock, different role).
func (b Block) FirstDocID() uint32 {
	return binary.LittleEndian.Uint32(b[0:4])
}

// SetFirstDocID writes a tail block's leading docid.
func (b Block) SetFirstDocID(v uint32) {
	binary.LittleEndian.PutUint32(b[0:4], v)
}

// TailBlock reads a head block's tail-block pointer.
func (b Block) TailBlock() uint32 {
	return binary.LittleEndian.Uint32(b[4:8])
}

// SetTailBlock writes a head block's tail-block pointer.
func (b Block) SetTailBlock(v uint32) {
	binary.LittleEndian.PutUint32(b[4:8], v)
}

// DocFreq reads a head block's posting count for its term.
func (b Block) DocFreq() uint32 {
	return binary.LittleEndian.Uint32(b[8:12])
}

// SetDocFreq writes a head block's posting count.
func (b Block) SetDocFreq(v uint32) {
	binary.LittleEndian.PutUint32(b[8:12], v)
}

// IncrementDocFreq bumps a head block's posting count by one.
func (b Block) IncrementDocFreq() {
	b.SetDocFreq(b.DocFreq() + 1)
}

// RecentDocID reads the most recently inserted docid for this term.
func (b Block) RecentDocID() uint32 {
	return binary.LittleEndian.Uint32(b[12:16])
}

// SetRecentDocID writes the most recently inserted docid.
func (b Block) SetRecentDocID(v uint32) {
	binary.LittleEndian.PutUint32(b[12:16], v)
}

// TailByteOffset reads the next unused byte offset in the tail block.
func (b Block) TailByteOffset() uint16 {
	return binary.LittleEndian.Uint16(b[16:18])
}

// SetTailByteOffset writes the next unused byte offset in the tail block.
func (b Block) SetTailByteOffset(v uint16) {
	binary.LittleEndian.PutUint16(b[16:18], v)
}

// AdvanceTailByteOffset moves the tail offset forward by stride bytes.
func (b Block) AdvanceTailByteOffset(stride int) {
	b.SetTailByteOffset(b.TailByteOffset() + uint16(stride))
}

// GrowthOffset reads the index into the slab size table this chain
// has grown to.
func (b Block) GrowthOffset() uint8 {
	return b[18]
}

// SetGrowthOffset writes the slab size table index.
func (b Block) SetGrowthOffset(v uint8) {
	b[18] = v
}

// IncrementGrowthOffset advances the growth offset by one, saturating
// at MaxSlabIdx.
func (b Block) IncrementGrowthOffset() {
	if b[18] < MaxSlabIdx {
		b[18]++
	}
}

// WordLength reads the term's byte length, stored in the head block.
func (b Block) WordLength() uint8 {
	return b[19]
}

// Term reads the term string out of a head block.
func (b Block) Term() string {
	wl := b.WordLength()
	return string(b[headPayloadOffset : headPayloadOffset+int(wl)])
}

// SetTerm writes term into a head block and records its length.
func (b Block) SetTerm(term string) {
	b[19] = byte(len(term))
	copy(b[headPayloadOffset:], term)
}

// InitHead resets a block to a freshly allocated chain head for term.
func (b Block) InitHead(term string, selfIndex uint32) {
	b.SetNextBlock(EndChain)
	b.SetTailBlock(selfIndex)
	b.SetDocFreq(0)
	b.SetTerm(term)
	b.SetTailByteOffset(uint16(headPayloadOffset + len(term)))
	b.SetRecentDocID(0)
	b.SetGrowthOffset(0)
}

// InitTorso resets a block to an empty torso node.
func (b Block) InitTorso() {
	b.SetNextBlock(EndChain)
}

// InitTail resets a block to an empty tail node carrying firstDocID.
func (b Block) InitTail(firstDocID uint32) {
	b.SetFirstDocID(firstDocID)
}

// HeadDataOffset returns the byte offset, within this head block,
// where the first encoded posting begins.
func (b Block) HeadDataOffset() int {
	return headPayloadOffset + int(b.WordLength())
}

// HeadPayload returns the slice starting at the head block's first
// posting byte.
func (b Block) HeadPayload() []byte {
	return b[b.HeadDataOffset():]
}

// Payload returns the posting-bytes slice of a torso or tail block,
// i.e. everything after the 4-byte header.
func (b Block) Payload() []byte {
	return b[ttPayloadOffset:]
}

// HeadFirstDocID decodes the first posting stored directly in a head
// block's payload, discarding the accompanying frequency.
func (b Block) HeadFirstDocID() uint32 {
	docgap, _, _ := DecodeMagic(b.HeadPayload())
	return docgap
}

// TorsoFirstDocID decodes the leading b-gap stored at the start of a
// torso block's payload.
func (b Block) TorsoFirstDocID() uint32 {
	docgap, _, _ := DecodeMagic(b.Payload())
	return docgap
}

// HasDataAt reports whether a byte at the given struct-relative
// offset has been written, using the zero-initialized arena as an
// implicit end-of-payload sentinel.
func (b Block) HasDataAt(offset int) bool {
	return b[offset] != 0
}
