// Package session groups one upload's accumulators behind an explicit handle.
//
// Each Session owns a chunk.Sequential and a chunk.Parallel accumulator and
// enforces its Limits on every write. A Manager maps session ids to sessions
// so unrelated uploads never share buffers.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/pithecene-io/chunkyard/chunk"
)

// Session is one upload's working state.
// Thread-safe: every method runs under the session lock.
type Session struct {
	mu sync.Mutex

	id        string
	principal string
	limits    Limits
	seq       *chunk.Sequential
	par       *chunk.Parallel
	// sealed rejects writes while a finalize is persisting the buffers.
	sealed bool

	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

func newSession(id, principal string, limits Limits, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:         id,
		principal:  principal,
		limits:     limits,
		seq:        chunk.NewSequential(),
		par:        chunk.NewParallel(),
		createdAt:  t,
		lastActive: t,
		now:        now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Principal returns the principal that opened the session.
func (s *Session) Principal() string { return s.principal }

// Limits returns the session limits.
func (s *Session) Limits() Limits { return s.limits }

// CreatedAt returns the time the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActive returns the time of the most recent mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// expired reports whether the session is unsealed and idle since before
// cutoff.
func (s *Session) expired(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.sealed && s.lastActive.Before(cutoff)
}

// touch records activity. Caller must hold s.mu.
func (s *Session) touch() {
	s.lastActive = s.now()
}

// heldBytes returns bytes currently buffered. Caller must hold s.mu.
func (s *Session) heldBytes() int64 {
	return int64(s.seq.Size()) + int64(s.par.TotalSize())
}

// writable returns ErrFinalizing while the session is sealed. Caller must
// hold s.mu.
func (s *Session) writable() error {
	if s.sealed {
		return fmt.Errorf("session %s: %w", s.id, ErrFinalizing)
	}
	return nil
}

// checkExpected bounds a caller-declared chunk count by MaxChunks.
func (s *Session) checkExpected(expected uint32) error {
	if expected > s.limits.MaxChunks {
		return &QuotaError{SessionID: s.id, Kind: QuotaIndex, Limit: int64(s.limits.MaxChunks), Requested: int64(expected)}
	}
	return nil
}

func (s *Session) checkBytes(requested int64) error {
	if requested > s.limits.MaxBytes {
		return &QuotaError{SessionID: s.id, Kind: QuotaBytes, Limit: s.limits.MaxBytes, Requested: requested}
	}
	return nil
}

// Append adds data to the sequential buffer.
func (s *Session) Append(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if err := s.checkBytes(s.heldBytes() + int64(len(data))); err != nil {
		return err
	}
	s.seq.Append(data)
	s.touch()
	return nil
}

// AppendAt stores data at index in the parallel buffer.
// Returns true if an existing chunk at index was replaced.
//
// Rejects with *QuotaError if index >= MaxChunks or if the byte budget would
// be exceeded. Overwrites only count
// the size difference against the byte budget.
func (s *Session) AppendAt(index uint32, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return false, err
	}
	if index >= s.limits.MaxChunks {
		return false, &QuotaError{SessionID: s.id, Kind: QuotaIndex, Limit: int64(s.limits.MaxChunks), Requested: int64(index)}
	}

	// Indices are confined to [0, MaxChunks), which also caps the chunk count.
	oldSize, replacing := s.par.PayloadSize(index)
	if err := s.checkBytes(s.heldBytes() - int64(oldSize) + int64(len(data))); err != nil {
		return false, err
	}

	s.par.Append(index, data)
	s.touch()
	return replacing, nil
}

// Size returns the sequential buffer length.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Size()
}

// Count returns the number of parallel chunks.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.par.Count()
}

// TotalSize returns the total parallel bytes.
func (s *Session) TotalSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.par.TotalSize()
}

// PresentIndices returns the parallel indices in ascending order.
func (s *Session) PresentIndices() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.par.PresentIndices()
}

// IsComplete reports whether exactly indices [0, expected) are present.
// An expected count above MaxChunks is rejected with *QuotaError.
func (s *Session) IsComplete(expected uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExpected(expected); err != nil {
		return false, err
	}
	return s.par.IsComplete(expected), nil
}

// MissingIndices returns absent indices in [0, expected).
// An expected count above MaxChunks is rejected with *QuotaError.
func (s *Session) MissingIndices(expected uint32) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExpected(expected); err != nil {
		return nil, err
	}
	return s.par.MissingIndices(expected), nil
}

// Remove deletes the parallel chunk at index so it can be re-sent.
func (s *Session) Remove(index uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return false, err
	}
	removed := s.par.Remove(index)
	if removed {
		s.touch()
	}
	return removed, nil
}

// Clear empties both buffers.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.Clear()
	s.par.Clear()
	s.touch()
}

// Extract returns and empties the sequential buffer.
func (s *Session) Extract() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return nil, err
	}
	s.touch()
	return s.seq.Extract(), nil
}

// Bytes returns a copy of the sequential buffer without consuming it.
func (s *Session) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Bytes()
}

// Load replaces the sequential buffer. The byte budget still applies.
func (s *Session) Load(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if err := s.checkBytes(int64(len(data)) + int64(s.par.TotalSize())); err != nil {
		return err
	}
	s.seq.Load(data)
	s.touch()
	return nil
}

// Consolidate moves parallel chunks into the sequential buffer.
// See chunk.Consolidate.
func (s *Session) Consolidate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return 0, err
	}
	n, err := chunk.Consolidate(s.par, s.seq)
	if err != nil {
		return 0, err
	}
	s.touch()
	return n, nil
}

// Assemble returns parallel chunks concatenated by index without consuming them.
func (s *Session) Assemble() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chunk.Assemble(s.par)
}

// AssembleComplete assembles the parallel chunks only if exactly
// [0, expected) are present, checked under the same lock as the read.
// Returns *IncompleteError otherwise.
func (s *Session) AssembleComplete(expected uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExpected(expected); err != nil {
		return nil, err
	}
	if !s.par.IsComplete(expected) {
		missing := s.par.MissingIndices(expected)
		return nil, &IncompleteError{
			SessionID:    s.id,
			Expected:     expected,
			Count:        s.par.Count(),
			MissingCount: len(missing),
			Missing:      append([]uint32(nil), missing[:min(len(missing), MaxReportedMissing)]...),
		}
	}
	return chunk.Assemble(s.par)
}

// Seal blocks every write until Unseal, so a finalize can persist a stable
// view of the buffers. Reads still work. Sealing a sealed session fails with
// ErrFinalizing.
func (s *Session) Seal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.sealed = true
	return nil
}

// Unseal re-opens the session for writes after a failed finalize.
func (s *Session) Unseal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = false
	s.touch()
}

// Status returns an advisory snapshot of both buffers.
func (s *Session) Status() chunk.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chunk.Snapshot(s.seq, s.par)
}
