package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("fs", "redis")

	c.IncSessionOpened()
	c.IncSessionOpened()
	c.RecordFinalized(100)
	c.IncSessionAborted()
	c.AddSessionsExpired(3)
	c.AddSessionsExpired(0)
	c.RecordChunk(10, false)
	c.RecordChunk(20, true)
	c.IncChunkRemoved()
	c.IncQuotaRejection()
	c.IncEmptyUpload()
	c.IncIncompleteFinalize()
	c.IncAuthDenied()
	c.IncFrameDecodeErrors()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"SessionsOpened", s.SessionsOpened, 2},
		{"SessionsFinalized", s.SessionsFinalized, 1},
		{"BytesFinalized", s.BytesFinalized, 100},
		{"SessionsAborted", s.SessionsAborted, 1},
		{"SessionsExpired", s.SessionsExpired, 3},
		{"ChunksAppended", s.ChunksAppended, 2},
		{"ChunksOverwritten", s.ChunksOverwritten, 1},
		{"BytesAppended", s.BytesAppended, 30},
		{"ChunksRemoved", s.ChunksRemoved, 1},
		{"QuotaRejections", s.QuotaRejections, 1},
		{"EmptyUploads", s.EmptyUploads, 1},
		{"IncompleteFinalize", s.IncompleteFinalize, 1},
		{"AuthDenied", s.AuthDenied, 1},
		{"FrameDecodeErrors", s.FrameDecodeErrors, 1},
		{"StoreWriteSuccess", s.StoreWriteSuccess, 2},
		{"StoreWriteFailure", s.StoreWriteFailure, 1},
	}
	for _, tc := range checks {
		if tc.got != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, tc.got, tc.want)
		}
	}

	if s.StorageBackend != "fs" || s.Adapter != "redis" {
		t.Errorf("dimensions = (%q, %q), want (fs, redis)", s.StorageBackend, s.Adapter)
	}
}

func TestCollector_NilReceiver(t *testing.T) {
	var c *Collector

	// None of these may panic
	c.IncSessionOpened()
	c.RecordFinalized(1)
	c.IncSessionAborted()
	c.AddSessionsExpired(1)
	c.RecordChunk(1, true)
	c.IncChunkRemoved()
	c.IncQuotaRejection()
	c.IncEmptyUpload()
	c.IncIncompleteFinalize()
	c.IncAuthDenied()
	c.IncFrameDecodeErrors()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()

	if s := c.Snapshot(); s.SessionsOpened != 0 {
		t.Errorf("nil collector snapshot = %+v, want zero", s)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("memory", "")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordChunk(2, false)
			c.IncStoreWriteSuccess()
			_ = c.Snapshot()
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.ChunksAppended != 50 || s.BytesAppended != 100 {
		t.Errorf("ChunksAppended=%d BytesAppended=%d, want 50/100", s.ChunksAppended, s.BytesAppended)
	}
	if s.StoreWriteSuccess != 50 {
		t.Errorf("StoreWriteSuccess = %d, want 50", s.StoreWriteSuccess)
	}
}
