package chunk

import (
	"io"

	"github.com/orbit-cdc/orbit-cdc/pkg/chunkconfig"
	"github.com/orbit-cdc/orbit-cdc/pkg/gear"
	"lukechampine.com/blake3"
)

// Cut outcomes reported by LastOutcome, describing why the most recent
// chunk from Next was cut. This is ambient metadata for observability;
// it is not part of the Chunk record itself (spec.md §3 fixes that
// shape to Offset/Length/Data/Hash).
const (
	OutcomeBoundary = "boundary" // the rolling-hash cut predicate fired
	OutcomeForced   = "forced"   // max_size was reached
	OutcomeFinal    = "final"    // the upstream source ended before either fired
)

// Stream is a lazy, finite, single-pass sequence of Chunk values over an
// upstream byte source, per spec.md §4.4. It is not safe for concurrent
// use, is not restartable, and becomes permanently dead after returning
// io.EOF or an *IOError.
type Stream struct {
	buf         *bufferManager
	boundary    boundary
	hash        gear.Hash
	cursor      uint64
	done        bool
	lastOutcome string
}

// NewStream builds a Stream over source using cfg's size policy. The
// stream owns no resources beyond its internal buffer and a reference
// to source; there is no explicit close, matching spec.md §5's
// "consumer cancels by dropping the stream" model.
func NewStream(source io.Reader, cfg chunkconfig.Config) *Stream {
	return &Stream{
		buf:      newBufferManager(source, cfg.MaxSize),
		boundary: newBoundary(cfg),
		hash:     gear.New(),
	}
}

// Next advances the stream by one chunk. It returns io.EOF once the
// upstream source is exhausted and every remaining byte has been
// emitted (including a possibly short final chunk), and keeps
// returning io.EOF on every subsequent call. A failing upstream read
// surfaces as *IOError exactly once; the stream is dead thereafter.
func (s *Stream) Next() (Chunk, error) {
	if s.done {
		return Chunk{}, io.EOF
	}

	for {
		if !s.buf.hasNext() {
			if s.buf.eof {
				if len(s.buf.liveView()) > 0 {
					return s.emit(OutcomeFinal), nil
				}
				s.done = true
				return Chunk{}, io.EOF
			}
			if err := s.buf.refill(); err != nil {
				s.done = true
				return Chunk{}, &IOError{
					Offset: s.cursor + uint64(len(s.buf.liveView())),
					Err:    err,
				}
			}
			continue
		}

		b := s.buf.nextByte()
		length := len(s.buf.liveView())
		h := s.hash.Roll(b)

		if s.boundary.cut(length, h) {
			outcome := OutcomeBoundary
			if s.boundary.forced(length) {
				outcome = OutcomeForced
			}
			return s.emit(outcome), nil
		}
	}
}

// LastOutcome reports why the most recent chunk returned by Next was
// cut. It is meaningless before the first successful Next call.
func (s *Stream) LastOutcome() string {
	return s.lastOutcome
}

// emit detaches the in-progress chunk from the buffer, hashes it, and
// advances the stream cursor. The rolling hash is left untouched: per
// spec.md §4.1 it is never reset at a chunk boundary.
func (s *Stream) emit(outcome string) Chunk {
	data := s.buf.cut()
	length := uint32(len(data))

	c := Chunk{
		Offset: s.cursor,
		Length: length,
		Data:   data,
		Hash:   blake3.Sum256(data),
	}

	s.cursor += uint64(length)
	s.lastOutcome = outcome
	if s.buf.exhausted() {
		s.done = true
	}
	return c
}
