package chunk

import "github.com/orbit-cdc/orbit-cdc/pkg/chunkconfig"

// boundary implements the cut-decision rules of spec.md §4.2:
//
//	L < min_size            : never cut
//	min_size <= L < max_size: cut iff (hash & mask) == 0 (T=1 form)
//	L == max_size           : forced cut
//
// It holds no hash state of its own; the caller feeds it the current
// rolling hash value alongside the in-progress chunk length.
type boundary struct {
	cfg chunkconfig.Config
}

func newBoundary(cfg chunkconfig.Config) boundary {
	return boundary{cfg: cfg}
}

// cut reports whether the byte that just advanced the in-progress chunk
// to length L, with rolling hash value h, is a cut point.
func (b boundary) cut(length int, hash uint64) bool {
	if length < b.cfg.MinSize {
		return false
	}
	if length >= b.cfg.MaxSize {
		return true
	}
	return hash&b.cfg.Mask() == 0
}

// forced reports whether a cut at length L was the max_size forced
// cut rather than the natural hash-based predicate.
func (b boundary) forced(length int) bool {
	return length >= b.cfg.MaxSize
}
