// Package blob persists assembled uploads and their manifests.
//
// A Store is a flat key/value space of byte objects. Backends are lode stores
// (filesystem, in-memory, S3) and Redis. Every backend error surfaces as a
// *StorageError so callers can branch on errors.Is(err, ErrNotFound) and
// friends without knowing the backend.
package blob

import (
	"context"
	"errors"
	"strings"
)

// Store is a persistent byte-object store keyed by relative paths.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the object stored under key.
	// A missing key yields an error matching ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Size returns the object length in bytes.
	// A missing key yields an error matching ErrNotFound.
	Size(ctx context.Context, key string) (int64, error)
	// List returns the keys beginning with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// ErrInvalidKey is returned for keys that cannot address an object.
var ErrInvalidKey = errors.New("invalid object key")

// ValidateKey checks that key is a non-empty relative slash path without
// ".." segments or backslashes.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.Join(ErrInvalidKey, errors.New("key is empty"))
	case strings.HasPrefix(key, "/"):
		return errors.Join(ErrInvalidKey, errors.New("key must be relative"))
	case strings.Contains(key, `\`):
		return errors.Join(ErrInvalidKey, errors.New("key must not contain backslashes"))
	case strings.HasSuffix(key, "/"):
		return errors.Join(ErrInvalidKey, errors.New("key must not end with a slash"))
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return errors.Join(ErrInvalidKey, errors.New("key has an empty, '.' or '..' segment"))
		}
	}
	return nil
}
