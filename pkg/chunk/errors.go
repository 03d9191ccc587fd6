package chunk

import "fmt"

// IOError wraps a failure from the upstream byte source, attaching the
// absolute stream offset at which it occurred. Per spec.md §7 the
// engine never retries, swallows, or transforms the underlying error
// beyond this offset context.
type IOError struct {
	Offset uint64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("chunk: upstream read failed at offset %d: %v", e.Offset, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
