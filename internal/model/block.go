package model

// Block is one chunk of bytes produced by a single read from the input.
// A block is shared by every sink writer of an operation and must not be
// mutated after it has been published.
type Block struct {
	// Seq is the zero-based position of the block in read order.
	Seq int64

	// Data holds the bytes read. Its length never exceeds the operation's
	// block size; only the last block before end of input may be shorter.
	Data []byte
}

// NewBlock wraps data read from the input into a Block.
func NewBlock(seq int64, data []byte) *Block {
	return &Block{
		Seq:  seq,
		Data: data,
	}
}

// Len returns the number of bytes in the block.
func (b *Block) Len() int {
	return len(b.Data)
}
