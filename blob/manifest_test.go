package blob

import (
	"errors"
	"testing"
	"time"
)

func TestManifest_SaveLoad(t *testing.T) {
	s := NewMemoryStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := &Manifest{
		Key:         "uploads/video.mp4",
		Size:        1 << 20,
		ChunkCount:  4,
		Mode:        ModeParallel,
		SessionID:   "s-1",
		Principal:   "alice",
		ContentType: "video/mp4",
		CreatedAt:   created,
		FinalizedAt: created.Add(time.Minute),
	}
	if err := SaveManifest(t.Context(), s, m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	exists, err := s.Exists(t.Context(), "uploads/video.mp4.manifest")
	if err != nil || !exists {
		t.Fatalf("manifest key missing: %v %v", exists, err)
	}

	got, err := LoadManifest(t.Context(), s, "uploads/video.mp4")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.Size != m.Size || got.ChunkCount != 4 || got.Mode != ModeParallel || got.Principal != "alice" {
		t.Errorf("LoadManifest = %+v", got)
	}
	if !got.FinalizedAt.Equal(m.FinalizedAt) {
		t.Errorf("FinalizedAt = %v, want %v", got.FinalizedAt, m.FinalizedAt)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(t.Context(), NewMemoryStore(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadValue_Corrupt(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(t.Context(), "bad", []byte{0xc1}); err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if err := LoadValue(t.Context(), s, "bad", &v); err == nil {
		t.Error("expected decode error")
	}
}
