package blob

import (
	"context"

	"github.com/pithecene-io/chunkyard/metrics"
)

// InstrumentedStore wraps a Store and records write metrics.
// Each Put increments store_write_success or store_write_failure on the
// collector. Reads pass through unrecorded.
type InstrumentedStore struct {
	inner     Store
	collector *metrics.Collector
}

// NewInstrumentedStore wraps a store with metrics instrumentation.
func NewInstrumentedStore(inner Store, collector *metrics.Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, collector: collector}
}

// Put delegates to the inner store and records success or failure.
func (s *InstrumentedStore) Put(ctx context.Context, key string, data []byte) error {
	err := s.inner.Put(ctx, key, data)
	if err != nil {
		s.collector.IncStoreWriteFailure()
	} else {
		s.collector.IncStoreWriteSuccess()
	}
	return err
}

// Get delegates to the inner store.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

// Delete delegates to the inner store.
func (s *InstrumentedStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.inner.Delete(ctx, key)
}

// Exists delegates to the inner store.
func (s *InstrumentedStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// Size delegates to the inner store.
func (s *InstrumentedStore) Size(ctx context.Context, key string) (int64, error) {
	return s.inner.Size(ctx, key)
}

// List delegates to the inner store.
func (s *InstrumentedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Close delegates to the inner store.
func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

// Verify InstrumentedStore implements Store.
var _ Store = (*InstrumentedStore)(nil)
