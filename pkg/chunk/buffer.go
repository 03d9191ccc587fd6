package chunk

import "io"

// bufferManager is the sliding window described in spec.md §4.3: a
// contiguous buffer of capacity 2*max_size holding the bytes of the
// in-progress chunk plus a scan region not yet fed to the hash engine.
//
// Bytes in [start, pos) belong to the in-progress chunk and are never
// overwritten before that chunk is emitted. Bytes in [pos, end) have
// been read from upstream but not yet scanned.
type bufferManager struct {
	source io.Reader
	buf    []byte

	start int // first byte of the in-progress chunk
	pos   int // next byte to feed the hash engine
	end   int // one past the last valid byte
	eof   bool
}

func newBufferManager(source io.Reader, maxSize int) *bufferManager {
	return &bufferManager{
		source: source,
		buf:    make([]byte, 2*maxSize),
	}
}

// liveView returns the bytes gathered so far for the in-progress chunk.
func (m *bufferManager) liveView() []byte {
	return m.buf[m.start:m.pos]
}

// hasNext reports whether a byte is ready to be scanned without a refill.
func (m *bufferManager) hasNext() bool {
	return m.pos < m.end
}

// nextByte returns the next unscanned byte and advances the scan cursor.
// Callers must check hasNext first.
func (m *bufferManager) nextByte() byte {
	b := m.buf[m.pos]
	m.pos++
	return b
}

// exhausted reports whether the upstream source is drained and every
// byte it ever produced has been scanned.
func (m *bufferManager) exhausted() bool {
	return m.eof && m.pos >= m.end
}

// cut detaches the in-progress chunk's bytes and starts a new window at
// the current scan cursor. The returned slice is a view into the
// buffer and is invalidated by the next refill.
func (m *bufferManager) cut() []byte {
	data := m.buf[m.start:m.pos]
	m.start = m.pos
	return data
}

// refill compacts the buffer (sliding the live window to the front) and
// pulls more bytes from upstream. It returns a non-nil error only for a
// genuine I/O failure; reaching end-of-input is reported by setting eof
// and returning nil, per spec.md §6 ("n = 0 with no explicit EOF flag
// is treated as EOF").
func (m *bufferManager) refill() error {
	if m.start > 0 {
		n := copy(m.buf, m.buf[m.start:m.end])
		m.pos -= m.start
		m.end = n
		m.start = 0
	}

	if m.end == len(m.buf) {
		// The in-progress chunk already fills the entire 2*max_size
		// buffer, which cannot happen: a forced cut at max_size keeps
		// the live window within max_size, leaving at least max_size
		// of headroom after compaction.
		return nil
	}

	n, err := m.source.Read(m.buf[m.end:])
	if n > 0 {
		m.end += n
	}
	if err != nil {
		if err == io.EOF {
			m.eof = true
			return nil
		}
		return err
	}
	if n == 0 {
		m.eof = true
	}
	return nil
}
