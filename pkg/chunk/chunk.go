// Package chunk implements the streaming content-defined chunker: the
// boundary detector, buffer manager, and chunk stream described in
// spec.md §4.2-4.4, built on top of pkg/gear's rolling hash.
package chunk

import (
	"encoding/hex"
	"fmt"
)

// Chunk is a single content-defined chunk of a stream.
//
// Data is a borrowed view into the Stream's internal buffer. It is
// valid only until the next call to Stream.Next; callers that need to
// retain it must copy it first.
type Chunk struct {
	Offset uint64
	Length uint32
	Data   []byte
	Hash   [32]byte
}

// HexHash renders Hash as a lowercase hex string, for logging and the
// demo CLI's plain-text output mode.
func (c Chunk) HexHash() string {
	return hex.EncodeToString(c.Hash[:])
}

// String implements fmt.Stringer for convenient debug printing.
func (c Chunk) String() string {
	return fmt.Sprintf("Chunk{offset=%d, length=%d, hash=%s}", c.Offset, c.Length, c.HexHash())
}
