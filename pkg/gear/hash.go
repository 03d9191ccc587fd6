package gear

// Hash is a gear rolling hash. Its state starts at 0, matching spec's
// initial value.
//
// Hash is a value type: it is cheap to copy and holds a pointer to the
// shared, read-only table returned by Table(). New binds that pointer;
// a zero Hash has no table bound, and Roll panics on it.
type Hash struct {
	state uint64
	table *[tableSize]uint64
}

// New returns a Hash ready to roll bytes, bound to the process-wide gear
// table.
func New() Hash {
	return Hash{table: Table()}
}

// Roll folds one byte into the rolling state and returns the new value.
// It performs the only operations the hot path requires: a table load,
// one 64-bit shift (which discards the top bit on overflow, per the
// fixed-width register semantics the algorithm relies on), and one
// addition.
func (h *Hash) Roll(b byte) uint64 {
	h.state = (h.state << 1) + h.table[b]
	return h.state
}

// Sum returns the current rolling state without modifying it.
func (h *Hash) Sum() uint64 {
	return h.state
}
