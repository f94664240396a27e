// Package adapter defines the completion-notification boundary.
//
// Adapters publish an event to a downstream system each time an upload is
// persisted. The upload service owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventTypeUploadCompleted is the event_type of every UploadCompletedEvent.
const EventTypeUploadCompleted = "upload_completed"

// UploadCompletedEvent is the payload published when an upload is persisted.
type UploadCompletedEvent struct {
	Version     string `json:"version"`
	EventType   string `json:"event_type"` // always "upload_completed"
	UploadID    string `json:"upload_id,omitempty"`
	SessionID   string `json:"session_id"`
	Principal   string `json:"principal,omitempty"`
	Key         string `json:"key"`
	ManifestKey string `json:"manifest_key"`
	Mode        string `json:"mode"` // sequential or parallel
	Size        int64  `json:"size"`
	ChunkCount  int    `json:"chunk_count"`
	ContentType string `json:"content_type,omitempty"`
	Storage     string `json:"storage"`   // storage backend name
	Timestamp   string `json:"timestamp"` // RFC 3339
	DurationMs  int64  `json:"duration_ms"`
}

// Adapter publishes upload completion events to a downstream system.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *UploadCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// BaseBackoff is the delay before the first retry. Each further retry
// doubles it.
const BaseBackoff = 500 * time.Millisecond

// Backoff returns the delay before retry attempt i (1-based).
func Backoff(i int) time.Duration {
	if i <= 0 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * BaseBackoff
}

// PermanentError marks an attempt failure that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Retry runs attempt up to 1+retries times with exponential backoff
// between attempts. It stops early on success, on context cancellation and
// on a *PermanentError. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, attempt func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(Backoff(i)):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s: non-retriable error: %w", name, perm.Err)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
