package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/justapithecus/lode/lode"
)

// storeContract exercises the Store behaviour shared by every backend.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := t.Context()

	if err := s.Put(ctx, "uploads/a.bin", []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "uploads/a.bin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Get = %q, want hello", got)
	}

	// Overwrite replaces the object
	if err := s.Put(ctx, "uploads/a.bin", []byte("bye")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	size, err := s.Size(ctx, "uploads/a.bin")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 3 {
		t.Errorf("Size = %d, want 3", size)
	}

	if err := s.Put(ctx, "uploads/b.bin", nil); err != nil {
		t.Fatalf("Put empty: %v", err)
	}
	if size, err := s.Size(ctx, "uploads/b.bin"); err != nil || size != 0 {
		t.Errorf("Size(empty) = %d, %v; want 0, nil", size, err)
	}

	keys, err := s.List(ctx, "uploads/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !slices.Equal(keys, []string{"uploads/a.bin", "uploads/b.bin"}) {
		t.Errorf("List = %v", keys)
	}

	existed, err := s.Delete(ctx, "uploads/a.bin")
	if err != nil || !existed {
		t.Errorf("Delete = %v, %v; want true, nil", existed, err)
	}
	existed, err = s.Delete(ctx, "uploads/a.bin")
	if err != nil || existed {
		t.Errorf("second Delete = %v, %v; want false, nil", existed, err)
	}

	exists, err := s.Exists(ctx, "uploads/a.bin")
	if err != nil || exists {
		t.Errorf("Exists after delete = %v, %v", exists, err)
	}

	if _, err := s.Get(ctx, "uploads/a.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Size(ctx, "uploads/a.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Size missing: expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "../escape", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Put invalid key: expected ErrInvalidKey, got %v", err)
	}
}

func TestLodeStore_Memory(t *testing.T) {
	s := NewMemoryStore()
	if s.Backend() != "memory" {
		t.Errorf("Backend = %q", s.Backend())
	}
	storeContract(t, s)
}

func TestLodeStore_FS(t *testing.T) {
	s := NewFSStore(t.TempDir())
	if s.Backend() != "fs" {
		t.Errorf("Backend = %q", s.Backend())
	}
	storeContract(t, s)
}

func TestLodeStore_FactoryError(t *testing.T) {
	calls := 0
	s := NewLodeStore("broken", func() (lode.Store, error) {
		calls++
		return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
	})

	err := s.Put(t.Context(), "k", []byte("v"))
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, err := s.Exists(t.Context(), "k"); err == nil {
		t.Fatal("expected cached init error")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

// failingStore is a lode.Store whose Put fails with a configurable error.
type failingStore struct {
	lode.Store
	putErr error
}

func (s *failingStore) Put(_ context.Context, _ string, _ io.Reader) error {
	return s.putErr
}

func TestLodeStore_PutFailureClassified(t *testing.T) {
	inner := &failingStore{Store: lode.NewMemory(), putErr: errors.New("write: no space left on device")}
	s := NewLodeStore("fs", func() (lode.Store, error) { return inner, nil })

	err := s.Put(t.Context(), "big.bin", []byte("x"))
	if !errors.Is(err, ErrDiskFull) {
		t.Fatalf("expected ErrDiskFull, got %v", err)
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "put" || se.Key != "big.bin" {
		t.Errorf("unexpected StorageError %+v", se)
	}
}
