// Package gear implements the gear-hash rolling checksum used by the
// content-defined chunker in pkg/chunk.
package gear

import (
	"encoding/binary"
	"sync"

	"lukechampine.com/blake3"
)

// seedString is the domain-separated seed for the gear table derivation.
// It is a property of the algorithm version: changing it changes every
// chunk boundary this package can ever produce, and is therefore a
// breaking change that requires a new seed identifier.
const seedString = "orbit-cdc/gear-v1"

// tableSize is the number of entries in the gear table, one per byte value.
const tableSize = 256

var (
	tableOnce sync.Once
	table     [tableSize]uint64
)

// Table returns the process-wide gear table, computing it on first use.
// The returned pointer is read-only; callers must not mutate it.
func Table() *[tableSize]uint64 {
	tableOnce.Do(initTable)
	return &table
}

// initTable derives the 256 gear constants deterministically from
// seedString, per spec: BLAKE3 of seedString (unkeyed), expanded via its
// extendable-output function into 2048 bytes, interpreted as 256
// little-endian u64 words.
func initTable() {
	h := blake3.New(32, nil)
	_, _ = h.Write([]byte(seedString))

	var raw [tableSize * 8]byte
	if _, err := h.XOF().Read(raw[:]); err != nil {
		panic("gear: failed to expand table seed: " + err.Error())
	}

	for i := 0; i < tableSize; i++ {
		table[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}
}
