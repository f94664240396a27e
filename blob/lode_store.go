package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/chunkyard/iox"
)

// LodeStore is a Store backed by a lode.Store.
// The underlying store is created lazily from the factory on first use.
type LodeStore struct {
	backend string
	factory lode.StoreFactory

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// NewLodeStore wraps a lode store factory. backend names the store for
// metrics and diagnostics (fs, memory, s3).
func NewLodeStore(backend string, factory lode.StoreFactory) *LodeStore {
	return &LodeStore{backend: backend, factory: factory}
}

// NewFSStore creates a filesystem-backed store rooted at root.
func NewFSStore(root string) *LodeStore {
	return NewLodeStore("fs", lode.NewFSFactory(root))
}

// NewMemoryStore creates an in-memory store. Contents are lost on exit.
func NewMemoryStore() *LodeStore {
	return NewLodeStore("memory", lode.NewMemoryFactory())
}

// Backend returns the backend name.
func (s *LodeStore) Backend() string {
	return s.backend
}

func (s *LodeStore) getOrCreateStore() (lode.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = s.factory()
		if s.storeErr != nil {
			s.storeErr = wrap("init", "", s.storeErr)
		}
	})
	return s.store, s.storeErr
}

// Put writes data under key. An existing object is deleted first since
// lode stores treat paths as write-once.
func (s *LodeStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return wrap("put", key, err)
	}
	if exists {
		if err := store.Delete(ctx, key); err != nil {
			return wrap("put", key, err)
		}
	}
	return wrap("put", key, store.Put(ctx, key, bytes.NewReader(data)))
}

// Get reads the object stored under key.
func (s *LodeStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return nil, err
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		if exists, existsErr := store.Exists(ctx, key); existsErr == nil && !exists {
			return nil, notFound("get", key)
		}
		return nil, wrap("get", key, err)
	}
	defer iox.DiscardClose(rc)

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrap("get", key, err)
	}
	return data, nil
}

// Delete removes key and reports whether it existed.
func (s *LodeStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return false, err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return false, wrap("delete", key, err)
	}
	if !exists {
		return false, nil
	}
	if err := store.Delete(ctx, key); err != nil {
		return false, wrap("delete", key, err)
	}
	return true, nil
}

// Exists reports whether key is present.
func (s *LodeStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return false, err
	}
	exists, err := store.Exists(ctx, key)
	return exists, wrap("exists", key, err)
}

// Size returns the object length by streaming it once.
func (s *LodeStore) Size(ctx context.Context, key string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return 0, err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return 0, wrap("size", key, err)
	}
	if !exists {
		return 0, notFound("size", key)
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		return 0, wrap("size", key, err)
	}
	defer iox.DiscardClose(rc)

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return 0, wrap("size", key, err)
	}
	return n, nil
}

// List returns the keys under prefix in ascending order.
func (s *LodeStore) List(ctx context.Context, prefix string) ([]string, error) {
	store, err := s.getOrCreateStore()
	if err != nil {
		return nil, err
	}
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, wrap("list", prefix, err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op; lode stores hold no long-lived resources.
func (s *LodeStore) Close() error {
	return nil
}

// String describes the store for logs.
func (s *LodeStore) String() string {
	return fmt.Sprintf("lode(%s)", s.backend)
}

// Verify LodeStore implements Store.
var _ Store = (*LodeStore)(nil)
