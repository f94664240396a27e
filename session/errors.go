package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrSessionNotFound indicates the session id is unknown or already closed.
	ErrSessionNotFound = errors.New("session not found")

	// ErrQuotaExceeded indicates an append would exceed a session limit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidLimits indicates a session was opened without usable limits.
	ErrInvalidLimits = errors.New("invalid session limits")

	// ErrFinalizing indicates a write arrived while the session was being
	// persisted.
	ErrFinalizing = errors.New("session is finalizing")
)

// QuotaKind identifies which session limit rejected a write.
type QuotaKind string

// Quota kinds.
const (
	// QuotaIndex rejects a chunk index outside [0, MaxChunks), or an
	// expected count above MaxChunks.
	QuotaIndex QuotaKind = "index"
	// QuotaBytes rejects a write that would exceed MaxBytes.
	QuotaBytes QuotaKind = "bytes"
)

// QuotaError reports a rejected write. It matches ErrQuotaExceeded.
type QuotaError struct {
	SessionID string
	Kind      QuotaKind
	// Limit is the configured ceiling for Kind.
	Limit int64
	// Requested is the value the write would have produced.
	Requested int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("session %s: %s quota exceeded (requested %d, limit %d)",
		e.SessionID, e.Kind, e.Requested, e.Limit)
}

// Is reports whether target is ErrQuotaExceeded.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// ErrIncomplete indicates an upload was finalized before all chunks arrived.
var ErrIncomplete = errors.New("upload incomplete")

// MaxReportedMissing caps IncompleteError.Missing.
const MaxReportedMissing = 32

// IncompleteError reports why a parallel upload is not complete.
// It matches ErrIncomplete.
type IncompleteError struct {
	SessionID string
	Expected  uint32
	// Count is the number of chunks held, including any beyond Expected.
	Count int
	// MissingCount is the number of absent indices in [0, Expected).
	MissingCount int
	// Missing holds the lowest absent indices, at most MaxReportedMissing.
	Missing []uint32
}

func (e *IncompleteError) Error() string {
	if e.MissingCount == 0 {
		return fmt.Sprintf("session %s: upload incomplete (have %d chunks, expected exactly %d)",
			e.SessionID, e.Count, e.Expected)
	}
	more := ""
	if e.MissingCount > len(e.Missing) {
		more = fmt.Sprintf(" and %d more", e.MissingCount-len(e.Missing))
	}
	return fmt.Sprintf("session %s: upload incomplete (%d of %d chunks missing: %v%s)",
		e.SessionID, e.MissingCount, e.Expected, e.Missing, more)
}

// Is reports whether target is ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}
