package blob

import (
	"context"
	"time"
)

// ManifestSuffix is appended to an object key to address its manifest.
const ManifestSuffix = ".manifest"

// Upload modes recorded in manifests.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Manifest describes a persisted upload. It is stored msgpack-encoded next
// to the object it describes.
type Manifest struct {
	Key         string    `msgpack:"key" json:"key" yaml:"key"`
	Size        int64     `msgpack:"size" json:"size" yaml:"size"`
	ChunkCount  int       `msgpack:"chunk_count" json:"chunk_count" yaml:"chunk_count"`
	Mode        string    `msgpack:"mode" json:"mode" yaml:"mode"`
	SessionID   string    `msgpack:"session_id" json:"session_id" yaml:"session_id"`
	Principal   string    `msgpack:"principal,omitempty" json:"principal,omitempty" yaml:"principal,omitempty"`
	ContentType string    `msgpack:"content_type,omitempty" json:"content_type,omitempty" yaml:"content_type,omitempty"`
	CreatedAt   time.Time `msgpack:"created_at" json:"created_at" yaml:"created_at"`
	FinalizedAt time.Time `msgpack:"finalized_at" json:"finalized_at" yaml:"finalized_at"`
}

// ManifestKey returns the manifest key for an object key.
func ManifestKey(key string) string {
	return key + ManifestSuffix
}

// SaveManifest stores m under the manifest key of m.Key.
func SaveManifest(ctx context.Context, s Store, m *Manifest) error {
	return SaveValue(ctx, s, ManifestKey(m.Key), m)
}

// LoadManifest reads the manifest for the object stored under key.
func LoadManifest(ctx context.Context, s Store, key string) (*Manifest, error) {
	var m Manifest
	if err := LoadValue(ctx, s, ManifestKey(key), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
