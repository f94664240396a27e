// Package metrics provides upload metrics collection.
//
// The Collector accumulates counters for the lifetime of a service instance.
// It is a leaf package with no internal dependencies so every layer (session
// service, ingestion, storage wrappers) can record into it.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all upload metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsOpened    int64 `json:"sessions_opened"`
	SessionsFinalized int64 `json:"sessions_finalized"`
	SessionsAborted   int64 `json:"sessions_aborted"`
	SessionsExpired   int64 `json:"sessions_expired"`

	// Chunks
	ChunksAppended    int64 `json:"chunks_appended"`
	ChunksOverwritten int64 `json:"chunks_overwritten"`
	ChunksRemoved     int64 `json:"chunks_removed"`
	BytesAppended     int64 `json:"bytes_appended"`
	BytesFinalized    int64 `json:"bytes_finalized"`

	// Rejections
	QuotaRejections    int64 `json:"quota_rejections"`
	EmptyUploads       int64 `json:"empty_uploads"`
	IncompleteFinalize int64 `json:"incomplete_finalize"`
	AuthDenied         int64 `json:"auth_denied"`
	FrameDecodeErrors  int64 `json:"frame_decode_errors"`

	// Storage (per call)
	StoreWriteSuccess int64 `json:"store_write_success"`
	StoreWriteFailure int64 `json:"store_write_failure"`

	// Dimensions (informational, set at construction)
	StorageBackend string `json:"storage_backend"`
	Adapter        string `json:"adapter"`
}

// Collector accumulates upload metrics.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsOpened    int64
	sessionsFinalized int64
	sessionsAborted   int64
	sessionsExpired   int64

	chunksAppended    int64
	chunksOverwritten int64
	chunksRemoved     int64
	bytesAppended     int64
	bytesFinalized    int64

	quotaRejections    int64
	emptyUploads       int64
	incompleteFinalize int64
	authDenied         int64
	frameDecodeErrors  int64

	storeWriteSuccess int64
	storeWriteFailure int64

	storageBackend string
	adapter        string
}

// NewCollector creates a Collector with dimension labels.
// adapter may be empty when no completion adapter is configured.
func NewCollector(storageBackend, adapter string) *Collector {
	return &Collector{
		storageBackend: storageBackend,
		adapter:        adapter,
	}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionOpened records a new session.
func (c *Collector) IncSessionOpened() {
	if c == nil {
		return
	}
	c.add(&c.sessionsOpened, 1)
}

// RecordFinalized records a finalized session and the bytes it persisted.
func (c *Collector) RecordFinalized(bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFinalized++
	c.bytesFinalized += bytes
	c.mu.Unlock()
}

// IncSessionAborted records an explicitly aborted session.
func (c *Collector) IncSessionAborted() {
	if c == nil {
		return
	}
	c.add(&c.sessionsAborted, 1)
}

// AddSessionsExpired records sessions reclaimed by an idle sweep.
func (c *Collector) AddSessionsExpired(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.add(&c.sessionsExpired, int64(n))
}

// --- Chunks ---

// RecordChunk records an accepted chunk of size bytes.
// overwrite is true when a parallel chunk replaced an existing index.
func (c *Collector) RecordChunk(size int, overwrite bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksAppended++
	c.bytesAppended += int64(size)
	if overwrite {
		c.chunksOverwritten++
	}
	c.mu.Unlock()
}

// IncChunkRemoved records a removed parallel chunk.
func (c *Collector) IncChunkRemoved() {
	if c == nil {
		return
	}
	c.add(&c.chunksRemoved, 1)
}

// --- Rejections ---

// IncQuotaRejection records a write rejected by session limits.
func (c *Collector) IncQuotaRejection() {
	if c == nil {
		return
	}
	c.add(&c.quotaRejections, 1)
}

// IncEmptyUpload records a consolidation attempted with no chunks.
func (c *Collector) IncEmptyUpload() {
	if c == nil {
		return
	}
	c.add(&c.emptyUploads, 1)
}

// IncIncompleteFinalize records a finalize rejected for missing chunks.
func (c *Collector) IncIncompleteFinalize() {
	if c == nil {
		return
	}
	c.add(&c.incompleteFinalize, 1)
}

// IncAuthDenied records an authorization failure.
func (c *Collector) IncAuthDenied() {
	if c == nil {
		return
	}
	c.add(&c.authDenied, 1)
}

// IncFrameDecodeErrors records a frame that could not be decoded.
func (c *Collector) IncFrameDecodeErrors() {
	if c == nil {
		return
	}
	c.add(&c.frameDecodeErrors, 1)
}

// --- Storage ---
// Store counters are per-call. A finalize writes the object and its
// manifest, so it records two calls.

// IncStoreWriteSuccess records a successful store write.
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.storeWriteSuccess, 1)
}

// IncStoreWriteFailure records a failed store write.
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.storeWriteFailure, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionsOpened:    c.sessionsOpened,
		SessionsFinalized: c.sessionsFinalized,
		SessionsAborted:   c.sessionsAborted,
		SessionsExpired:   c.sessionsExpired,

		ChunksAppended:    c.chunksAppended,
		ChunksOverwritten: c.chunksOverwritten,
		ChunksRemoved:     c.chunksRemoved,
		BytesAppended:     c.bytesAppended,
		BytesFinalized:    c.bytesFinalized,

		QuotaRejections:    c.quotaRejections,
		EmptyUploads:       c.emptyUploads,
		IncompleteFinalize: c.incompleteFinalize,
		AuthDenied:         c.authDenied,
		FrameDecodeErrors:  c.frameDecodeErrors,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		StorageBackend: c.storageBackend,
		Adapter:        c.adapter,
	}
}
