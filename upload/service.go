// Package upload composes sessions, authorization, storage and completion
// notifications into the chunk upload service, and drives it from a frame
// stream (Engine).
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/chunkyard/adapter"
	"github.com/pithecene-io/chunkyard/auth"
	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/chunk"
	"github.com/pithecene-io/chunkyard/log"
	"github.com/pithecene-io/chunkyard/metrics"
	"github.com/pithecene-io/chunkyard/session"
	"github.com/pithecene-io/chunkyard/types"
)

// Options configures a Service. Store is required; everything else has a
// usable default.
type Options struct {
	Store      blob.Store
	Authorizer auth.Authorizer
	// Adapter, when set, receives an event for every finalized upload.
	Adapter   adapter.Adapter
	Logger    *log.Logger
	Collector *metrics.Collector
	// Limits apply to sessions opened with Begin.
	Limits session.Limits
	// StorageBackend names the store in completion events.
	StorageBackend string
	// Now overrides the clock for sessions and manifests.
	Now func() time.Time
}

// Service is the upload API. All methods are safe for concurrent use.
type Service struct {
	sessions   *session.Manager
	store      blob.Store
	authorizer auth.Authorizer
	adapter    adapter.Adapter
	logger     *log.Logger
	collector  *metrics.Collector
	limits     session.Limits
	backend    string
	now        func() time.Time
}

// NewService creates a Service from opts.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("upload service requires a store")
	}
	if opts.Limits == (session.Limits{}) {
		opts.Limits = session.DefaultLimits()
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, err
	}
	if opts.Authorizer == nil {
		opts.Authorizer = auth.AllowAll{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		sessions:   session.NewManagerWithClock(opts.Now),
		store:      opts.Store,
		authorizer: opts.Authorizer,
		adapter:    opts.Adapter,
		logger:     opts.Logger,
		collector:  opts.Collector,
		limits:     opts.Limits,
		backend:    opts.StorageBackend,
		now:        opts.Now,
	}, nil
}

// Limits returns the limits applied by Begin.
func (s *Service) Limits() session.Limits {
	return s.limits
}

func (s *Service) authorize(ctx context.Context, principal string, action auth.Action) error {
	if err := s.authorizer.Authorize(ctx, principal, action); err != nil {
		s.collector.IncAuthDenied()
		s.logger.Warn("authorization denied", map[string]any{
			"principal": principal,
			"action":    string(action),
		})
		return err
	}
	return nil
}

// owned authorizes action and returns the session if principal opened it.
func (s *Service) owned(ctx context.Context, principal, id string, action auth.Action) (*session.Session, error) {
	if err := s.authorize(ctx, principal, action); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, id, err)
	}
	if sess.Principal() != principal {
		s.collector.IncAuthDenied()
		return nil, fmt.Errorf("%w: session %s belongs to another principal", auth.ErrUnauthorized, id)
	}
	return sess, nil
}

func (s *Service) get(id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return sess, nil
}

func (s *Service) recordWriteErr(err error) error {
	if errors.Is(err, session.ErrQuotaExceeded) {
		s.collector.IncQuotaRejection()
	}
	return err
}

// Begin opens a session for principal with the service limits.
func (s *Service) Begin(ctx context.Context, principal string) (string, error) {
	return s.BeginWithLimits(ctx, principal, s.limits)
}

// BeginWithLimits opens a session with explicit limits.
func (s *Service) BeginWithLimits(ctx context.Context, principal string, limits session.Limits) (string, error) {
	if err := s.authorize(ctx, principal, auth.ActionBegin); err != nil {
		return "", err
	}
	sess, err := s.sessions.Open(principal, limits)
	if err != nil {
		return "", err
	}
	s.collector.IncSessionOpened()
	s.logger.Debug("session opened", map[string]any{
		"session_id": sess.ID(),
		"principal":  principal,
		"max_chunks": limits.MaxChunks,
		"max_bytes":  limits.MaxBytes,
	})
	return sess.ID(), nil
}

// Append adds data to the session's sequential buffer.
func (s *Service) Append(ctx context.Context, principal, id string, data []byte) error {
	sess, err := s.owned(ctx, principal, id, auth.ActionAppend)
	if err != nil {
		return err
	}
	if err := sess.Append(data); err != nil {
		return s.recordWriteErr(err)
	}
	s.collector.RecordChunk(len(data), false)
	return nil
}

// AppendAt stores data at index in the session's parallel buffer.
func (s *Service) AppendAt(ctx context.Context, principal, id string, index uint32, data []byte) error {
	sess, err := s.owned(ctx, principal, id, auth.ActionAppend)
	if err != nil {
		return err
	}
	replaced, err := sess.AppendAt(index, data)
	if err != nil {
		return s.recordWriteErr(err)
	}
	s.collector.RecordChunk(len(data), replaced)
	return nil
}

// Remove deletes the parallel chunk at index and reports whether it existed.
func (s *Service) Remove(ctx context.Context, principal, id string, index uint32) (bool, error) {
	sess, err := s.owned(ctx, principal, id, auth.ActionRemove)
	if err != nil {
		return false, err
	}
	removed, err := sess.Remove(index)
	if err != nil {
		return false, err
	}
	if removed {
		s.collector.IncChunkRemoved()
	}
	return removed, nil
}

// Complete reports whether exactly the indices [0, expected) are held.
func (s *Service) Complete(id string, expected uint32) (bool, error) {
	sess, err := s.get(id)
	if err != nil {
		return false, err
	}
	return sess.IsComplete(expected)
}

// Missing returns the absent indices in [0, expected). expected may not
// exceed the session's MaxChunks.
func (s *Service) Missing(id string, expected uint32) ([]uint32, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.MissingIndices(expected)
}

// Status returns an advisory snapshot of the session buffers.
func (s *Service) Status(id string) (chunk.Status, error) {
	sess, err := s.get(id)
	if err != nil {
		return chunk.Status{}, err
	}
	return sess.Status(), nil
}

// Consolidate moves the parallel chunks into the sequential buffer,
// replacing its contents. Returns the consolidated byte count.
func (s *Service) Consolidate(ctx context.Context, principal, id string) (int, error) {
	sess, err := s.owned(ctx, principal, id, auth.ActionConsolidate)
	if err != nil {
		return 0, err
	}
	n, err := sess.Consolidate()
	if err != nil {
		if errors.Is(err, chunk.ErrEmptyUpload) {
			s.collector.IncEmptyUpload()
		}
		return 0, err
	}
	s.logger.Debug("parallel chunks consolidated", map[string]any{
		"session_id": id,
		"bytes":      n,
	})
	return n, nil
}

// Peek assembles the parallel chunks without consuming them.
func (s *Service) Peek(id string) ([]byte, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.Assemble()
}

// Abort drops the session and its buffers without persisting. A session
// being finalized cannot be aborted.
func (s *Service) Abort(ctx context.Context, principal, id string) error {
	sess, err := s.owned(ctx, principal, id, auth.ActionAbort)
	if err != nil {
		return err
	}
	if err := sess.Seal(); err != nil {
		return err
	}
	if s.sessions.Close(id) {
		s.collector.IncSessionAborted()
		s.logger.Debug("session aborted", map[string]any{"session_id": id})
	}
	return nil
}

// Sweep closes sessions idle for at least idle and returns their ids.
func (s *Service) Sweep(idle time.Duration) []string {
	ids := s.sessions.Sweep(idle)
	if len(ids) > 0 {
		s.collector.AddSessionsExpired(len(ids))
		s.logger.Info("idle sessions expired", map[string]any{
			"count":   len(ids),
			"idle_ms": idle.Milliseconds(),
		})
	}
	return ids
}

// Stats returns aggregate buffer usage across open sessions.
func (s *Service) Stats() session.ManagerStats {
	return s.sessions.Stats()
}

// Metrics returns the collector snapshot.
func (s *Service) Metrics() metrics.Snapshot {
	return s.collector.Snapshot()
}

// FinalizeRequest selects what Finalize persists.
type FinalizeRequest struct {
	// Key is the object key (see blob.ValidateKey).
	Key string
	// Parallel persists the parallel buffer; otherwise the sequential one.
	Parallel bool
	// ExpectedCount, when > 0, requires exactly [0, ExpectedCount) before
	// a parallel upload is persisted.
	ExpectedCount uint32
	// ContentType is recorded in the manifest.
	ContentType string
	// UploadID is the client-side identifier echoed in the completion event.
	UploadID string
}

// FinalizeResult describes a persisted upload.
type FinalizeResult struct {
	Manifest *blob.Manifest
	// PublishErr is set when the object was stored but the completion
	// event could not be delivered.
	PublishErr error
}

// Finalize persists the session's upload under req.Key, writes its
// manifest, publishes a completion event and closes the session.
//
// The session is sealed for the duration: concurrent writes fail with
// session.ErrFinalizing instead of landing in a buffer that is about to be
// dropped. Buffers are read without being consumed, so a failed write
// unseals the session with its chunks intact for a retry.
func (s *Service) Finalize(ctx context.Context, principal, id string, req FinalizeRequest) (*FinalizeResult, error) {
	sess, err := s.owned(ctx, principal, id, auth.ActionFinalize)
	if err != nil {
		return nil, err
	}
	if err := blob.ValidateKey(req.Key); err != nil {
		return nil, err
	}
	if err := sess.Seal(); err != nil {
		return nil, err
	}
	res, err := s.finalizeSealed(ctx, sess, principal, req)
	if err != nil {
		sess.Unseal()
		s.logger.Error("finalize failed", map[string]any{
			"session_id": id,
			"key":        req.Key,
			"error":      err.Error(),
		})
		return nil, err
	}
	return res, nil
}

func (s *Service) finalizeSealed(ctx context.Context, sess *session.Session, principal string, req FinalizeRequest) (*FinalizeResult, error) {
	id := sess.ID()
	started := s.now()
	var (
		data       []byte
		chunkCount int
		mode       = blob.ModeSequential
		err        error
	)
	if req.Parallel {
		mode = blob.ModeParallel
		chunkCount = sess.Count()
		if req.ExpectedCount > 0 {
			data, err = sess.AssembleComplete(req.ExpectedCount)
		} else {
			data, err = sess.Assemble()
		}
		if err != nil {
			switch {
			case errors.Is(err, session.ErrIncomplete):
				s.collector.IncIncompleteFinalize()
			case errors.Is(err, chunk.ErrEmptyUpload):
				s.collector.IncEmptyUpload()
			case errors.Is(err, session.ErrQuotaExceeded):
				s.collector.IncQuotaRejection()
			}
			return nil, err
		}
	} else {
		data = sess.Bytes()
	}

	manifest := &blob.Manifest{
		Key:         req.Key,
		Size:        int64(len(data)),
		ChunkCount:  chunkCount,
		Mode:        mode,
		SessionID:   id,
		Principal:   principal,
		ContentType: req.ContentType,
		CreatedAt:   sess.CreatedAt(),
		FinalizedAt: started,
	}

	if err := s.persist(ctx, data, manifest); err != nil {
		return nil, err
	}

	s.sessions.Close(id)
	s.collector.RecordFinalized(manifest.Size)
	s.logger.Info("upload finalized", map[string]any{
		"session_id":  id,
		"key":         req.Key,
		"mode":        mode,
		"bytes":       manifest.Size,
		"chunk_count": chunkCount,
	})

	res := &FinalizeResult{Manifest: manifest}
	if s.adapter != nil {
		res.PublishErr = s.publish(ctx, req.UploadID, manifest)
	}
	return res, nil
}

// persist writes the object and then its manifest. A failed manifest
// write removes the object again.
func (s *Service) persist(ctx context.Context, data []byte, m *blob.Manifest) error {
	if err := s.store.Put(ctx, m.Key, data); err != nil {
		return fmt.Errorf("store object: %w", err)
	}
	if err := blob.SaveManifest(ctx, s.store, m); err != nil {
		if _, delErr := s.store.Delete(ctx, m.Key); delErr != nil {
			s.logger.Warn("failed to remove object after manifest error", map[string]any{
				"key":   m.Key,
				"error": delErr.Error(),
			})
		}
		return fmt.Errorf("store manifest: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, uploadID string, m *blob.Manifest) error {
	event := &adapter.UploadCompletedEvent{
		Version:     types.Version,
		EventType:   adapter.EventTypeUploadCompleted,
		UploadID:    uploadID,
		SessionID:   m.SessionID,
		Principal:   m.Principal,
		Key:         m.Key,
		ManifestKey: blob.ManifestKey(m.Key),
		Mode:        m.Mode,
		Size:        m.Size,
		ChunkCount:  m.ChunkCount,
		ContentType: m.ContentType,
		Storage:     s.backend,
		Timestamp:   m.FinalizedAt.UTC().Format(time.RFC3339),
		DurationMs:  m.FinalizedAt.Sub(m.CreatedAt).Milliseconds(),
	}
	if err := s.adapter.Publish(ctx, event); err != nil {
		s.logger.Warn("completion event not delivered", map[string]any{
			"session_id": m.SessionID,
			"key":        m.Key,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}
