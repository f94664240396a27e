package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/ipc"
	"github.com/pithecene-io/chunkyard/log"
	"github.com/pithecene-io/chunkyard/types"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Principal owns every session the engine opens.
	Principal string
	// DryRun buffers chunks and evaluates finalize frames without
	// persisting anything.
	DryRun bool
	// IdleTimeout, when > 0, expires sessions idle this long at end of stream.
	IdleTimeout time.Duration
	// FailFast stops the stream at the first upload failure.
	FailFast bool
}

// Engine reads a chunk frame stream and drives the Service.
//
// Each frame's upload_id maps to a session opened on first use. Frames
// are applied in order:
//   - Invalid framing is fatal (no resync)
//   - A failed operation marks its upload failed; later frames for that
//     upload are ignored, other uploads proceed
//   - After finalize or abort, a reused upload_id starts a new session
type Engine struct {
	svc     *Service
	opts    EngineOptions
	logger  *log.Logger
	uploads map[string]*UploadReport
	order   []*UploadReport
	frames  int
	failed  []error
}

// NewEngine creates an engine bound to svc.
func NewEngine(svc *Service, opts EngineOptions) *Engine {
	return &Engine{
		svc:     svc,
		opts:    opts,
		logger:  svc.logger.With("principal", opts.Principal),
		uploads: make(map[string]*UploadReport),
	}
}

// Run ingests frames from r until EOF, a fatal error or cancellation.
// The report is returned in every case.
//
// Returns:
//   - nil: stream ended cleanly and no upload failed
//   - *IngestionError with Kind=IngestionErrorStream: frame/stream error
//   - *IngestionError with Kind=IngestionErrorUpload: at least one upload failed
//   - *IngestionError with Kind=IngestionErrorCanceled: context canceled
func (e *Engine) Run(ctx context.Context, r io.Reader) (*Report, error) {
	err := e.loop(ctx, ipc.NewFrameDecoder(r))
	if err == nil {
		e.finish()
		if len(e.failed) > 0 {
			err = &IngestionError{
				Kind: IngestionErrorUpload,
				Err:  fmt.Errorf("%d upload(s) failed: %w", len(e.failed), errors.Join(e.failed...)),
			}
		}
	}
	return e.report(), err
}

func (e *Engine) loop(ctx context.Context, dec *ipc.FrameDecoder) error {
	for {
		select {
		case <-ctx.Done():
			return &IngestionError{Kind: IngestionErrorCanceled, Err: ctx.Err()}
		default:
		}

		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var frameErr *ipc.FrameError
			if errors.As(err, &frameErr) {
				e.svc.collector.IncFrameDecodeErrors()
			}
			e.logger.Error("frame error", map[string]any{
				"frame": e.frames + 1,
				"error": err.Error(),
			})
			return &IngestionError{
				Kind: IngestionErrorStream,
				Err:  fmt.Errorf("frame %d: %w", e.frames+1, err),
			}
		}
		e.frames++

		if err := e.apply(ctx, frame); err != nil && e.opts.FailFast {
			return &IngestionError{Kind: IngestionErrorUpload, Err: err}
		}
	}
}

// upload returns the report tracking frame's upload, opening a session if
// the upload is new or its previous session ended.
func (e *Engine) upload(ctx context.Context, id string) (*UploadReport, error) {
	if u, ok := e.uploads[id]; ok {
		switch u.State {
		case StateFinalized, StateAborted, StateExpired:
		default:
			return u, nil
		}
	}

	u := &UploadReport{UploadID: id, State: StateOpen}
	e.uploads[id] = u
	e.order = append(e.order, u)

	sessionID, err := e.svc.Begin(ctx, e.opts.Principal)
	if err != nil {
		return u, err
	}
	u.SessionID = sessionID
	return u, nil
}

func (e *Engine) apply(ctx context.Context, frame types.UploadFrame) error {
	u, err := e.upload(ctx, frame.Upload())
	u.Frames++
	if err != nil {
		return e.fail(u, frame, err)
	}
	if u.State == StateFailed {
		u.Ignored++
		return nil
	}

	switch f := frame.(type) {
	case *types.ChunkFrame:
		u.Mode = blob.ModeSequential
		err = e.svc.Append(ctx, e.opts.Principal, u.SessionID, f.Data)
	case *types.ParallelChunkFrame:
		u.Mode = blob.ModeParallel
		err = e.svc.AppendAt(ctx, e.opts.Principal, u.SessionID, f.Index, f.Data)
	case *types.RemoveChunkFrame:
		_, err = e.svc.Remove(ctx, e.opts.Principal, u.SessionID, f.Index)
	case *types.ConsolidateFrame:
		_, err = e.svc.Consolidate(ctx, e.opts.Principal, u.SessionID)
	case *types.FinalizeFrame:
		err = e.finalize(ctx, u, f)
	case *types.AbortFrame:
		if err = e.svc.Abort(ctx, e.opts.Principal, u.SessionID); err == nil {
			u.State = StateAborted
		}
	}
	if err != nil {
		return e.fail(u, frame, err)
	}
	return nil
}

func (e *Engine) finalize(ctx context.Context, u *UploadReport, f *types.FinalizeFrame) error {
	u.Key = f.Key
	u.ExpectedCount = f.ExpectedCount
	if f.Parallel {
		u.Mode = blob.ModeParallel
	} else {
		u.Mode = blob.ModeSequential
	}

	if e.opts.DryRun {
		return e.evaluate(u, f)
	}

	res, err := e.svc.Finalize(ctx, e.opts.Principal, u.SessionID, FinalizeRequest{
		Key:           f.Key,
		Parallel:      f.Parallel,
		ExpectedCount: f.ExpectedCount,
		ContentType:   f.ContentType,
		UploadID:      u.UploadID,
	})
	if err != nil {
		return err
	}
	u.State = StateFinalized
	u.Complete = true
	u.Size = res.Manifest.Size
	if res.PublishErr != nil {
		u.Error = res.PublishErr.Error()
	}
	return nil
}

// evaluate records what a finalize frame would do without persisting.
func (e *Engine) evaluate(u *UploadReport, f *types.FinalizeFrame) error {
	st, err := e.svc.Status(u.SessionID)
	if err != nil {
		return err
	}
	u.Status = st

	if !f.Parallel {
		u.Complete = true
		u.Size = int64(st.BufferSize)
	} else {
		u.Size = int64(st.ParallelBufferSize)
		if f.ExpectedCount > 0 {
			if u.Complete, err = e.svc.Complete(u.SessionID, f.ExpectedCount); err != nil {
				return err
			}
			if u.Missing, err = e.svc.Missing(u.SessionID, f.ExpectedCount); err != nil {
				return err
			}
		} else {
			u.Complete = st.ParallelChunkCount > 0
		}
	}

	if u.Complete {
		u.State = StateReady
	} else {
		u.State = StateIncomplete
	}
	return nil
}

// fail marks u failed, releases its session and records err.
func (e *Engine) fail(u *UploadReport, frame types.UploadFrame, err error) error {
	u.State = StateFailed
	u.Error = err.Error()
	if u.SessionID != "" {
		if st, statusErr := e.svc.Status(u.SessionID); statusErr == nil {
			u.Status = st
		}
		e.svc.sessions.Close(u.SessionID)
	}

	e.logger.Warn("upload failed", map[string]any{
		"upload_id":  u.UploadID,
		"session_id": u.SessionID,
		"frame_type": frame.FrameType(),
		"error":      err.Error(),
	})

	err = fmt.Errorf("upload %s: %w", u.UploadID, err)
	e.failed = append(e.failed, err)
	return err
}

// finish sweeps idle sessions and snapshots uploads still buffered.
func (e *Engine) finish() {
	if e.opts.IdleTimeout > 0 {
		expired := make(map[string]bool)
		for _, id := range e.svc.Sweep(e.opts.IdleTimeout) {
			expired[id] = true
		}
		for _, u := range e.order {
			if expired[u.SessionID] {
				u.State = StateExpired
			}
		}
	}

	for _, u := range e.order {
		switch u.State {
		case StateOpen, StateReady, StateIncomplete:
			if st, err := e.svc.Status(u.SessionID); err == nil {
				u.Status = st
			}
		}
	}
}

func (e *Engine) report() *Report {
	return &Report{
		DryRun:  e.opts.DryRun,
		Frames:  e.frames,
		Uploads: e.order,
		Metrics: e.svc.Metrics(),
	}
}
