package session

import "fmt"

// Default limits applied when configuration does not override them.
const (
	DefaultMaxChunks uint32 = 16 * 1024
	DefaultMaxBytes  int64  = 1 * 1024 * 1024 * 1024
)

// Limits bounds what a single session may hold.
// Both fields are required; there is no unlimited mode.
type Limits struct {
	// MaxChunks bounds the parallel index range to [0, MaxChunks),
	// and with it the number of distinct chunks.
	MaxChunks uint32 `json:"max_chunks" yaml:"max_chunks"`
	// MaxBytes bounds sequential plus parallel bytes held at once.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{MaxChunks: DefaultMaxChunks, MaxBytes: DefaultMaxBytes}
}

// Validate checks that both limits are set.
func (l Limits) Validate() error {
	if l.MaxChunks == 0 {
		return fmt.Errorf("%w: max_chunks must be > 0", ErrInvalidLimits)
	}
	if l.MaxBytes <= 0 {
		return fmt.Errorf("%w: max_bytes must be > 0, got %d", ErrInvalidLimits, l.MaxBytes)
	}
	return nil
}
