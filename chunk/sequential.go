// Package chunk implements the chunk buffering and reassembly engine.
//
// Two accumulators make up the engine:
//   - Sequential: append-only bytes for chunks that arrive in order
//   - Parallel: index-tagged chunks that may arrive in any order
//
// Consolidate and Assemble turn a Parallel accumulator into one contiguous
// byte sequence by ascending index. Snapshot reports on both.
//
// Accumulators are not safe for concurrent use. Callers that share them
// across goroutines must serialize access (see package session).
package chunk

// Sequential is an append-only byte buffer.
// Bytes are kept strictly in call order.
type Sequential struct {
	buf []byte
}

// NewSequential creates an empty sequential accumulator.
func NewSequential() *Sequential {
	return &Sequential{}
}

// Append extends the buffer with data.
func (s *Sequential) Append(data []byte) {
	s.buf = append(s.buf, data...)
}

// Size returns the current buffer length.
func (s *Sequential) Size() int {
	return len(s.buf)
}

// Bytes returns a copy of the buffered bytes without consuming them.
func (s *Sequential) Bytes() []byte {
	return append([]byte{}, s.buf...)
}

// Clear empties the buffer and releases its memory.
func (s *Sequential) Clear() {
	s.buf = nil
}

// Extract returns the buffered bytes and empties the buffer.
// A second Extract without intervening appends returns an empty slice.
func (s *Sequential) Extract() []byte {
	data := s.buf
	s.buf = nil
	if data == nil {
		return []byte{}
	}
	return data
}

// Load replaces the buffer contents with a copy of data.
// Used to restore state, e.g. after a failed hand-off.
func (s *Sequential) Load(data []byte) {
	s.buf = append([]byte(nil), data...)
}
