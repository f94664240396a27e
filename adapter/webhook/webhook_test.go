package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pithecene-io/chunkyard/adapter"
	"github.com/pithecene-io/chunkyard/iox"
)

func completedEvent() *adapter.UploadCompletedEvent {
	return &adapter.UploadCompletedEvent{
		Version:     "0.3.0",
		EventType:   adapter.EventTypeUploadCompleted,
		UploadID:    "clip",
		SessionID:   "5f0c6f3e-8d0b-4a55-9d2a-2b8f1f4c9e10",
		Principal:   "ingest-bot",
		Key:         "media/2026/clip.mp4",
		ManifestKey: "media/2026/clip.mp4.manifest",
		Mode:        "parallel",
		Size:        4 << 20,
		ChunkCount:  4,
		ContentType: "video/mp4",
		Storage:     "fs",
		Timestamp:   "2026-03-01T12:00:00Z",
		DurationMs:  1500,
	}
}

// statusServer answers every request with the codes in order, repeating the
// last one, and counts the requests it saw.
func statusServer(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(hits.Add(1))
		w.WriteHeader(codes[min(n, len(codes))-1])
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func newAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { iox.DiscardClose(a) })
	return a
}

func TestPublish_DeliversEvent(t *testing.T) {
	type delivery struct {
		event   adapter.UploadCompletedEvent
		headers http.Header
	}
	deliveries := make(chan delivery, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var d delivery
		if err := json.NewDecoder(r.Body).Decode(&d.event); err != nil {
			t.Errorf("decode body: %v", err)
		}
		d.headers = r.Header.Clone()
		deliveries <- d
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer test-token"},
	})
	event := completedEvent()
	if err := a.Publish(t.Context(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	d := <-deliveries
	got, headers := d.event, d.headers

	if got.Key != event.Key || got.Size != event.Size || got.ChunkCount != event.ChunkCount {
		t.Errorf("body = %+v, want key/size/chunks from %+v", got, event)
	}

	wantHeaders := map[string]string{
		"Content-Type":       "application/json",
		"Authorization":      "Bearer test-token",
		HeaderEvent:          adapter.EventTypeUploadCompleted,
		HeaderObjectKey:      event.Key,
		HeaderIdempotencyKey: event.SessionID,
	}
	for name, want := range wantHeaders {
		if v := headers.Get(name); v != want {
			t.Errorf("header %s = %q, want %q", name, v, want)
		}
	}
}

func TestPublish_IdempotencyKeyStableAcrossRetries(t *testing.T) {
	keyCh := make(chan string, 4)
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyCh <- r.Header.Get(HeaderIdempotencyKey)
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL, Retries: 1})
	if err := a.Publish(t.Context(), completedEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	close(keyCh)
	var keys []string
	for k := range keyCh {
		keys = append(keys, k)
	}
	if len(keys) != 2 || keys[0] != keys[1] || keys[0] == "" {
		t.Errorf("idempotency keys = %q, want two equal non-empty keys", keys)
	}
}

func TestPublish_StatusHandling(t *testing.T) {
	tests := []struct {
		name      string
		codes     []int
		retries   int
		wantErr   bool
		wantCalls int32
	}{
		{"200 ok", []int{200}, 3, false, 1},
		{"204 no content", []int{204}, 3, false, 1},
		{"5xx then ok", []int{500, 502, 200}, 3, false, 3},
		{"5xx exhausts retries", []int{503}, 2, true, 3},
		{"400 is permanent", []int{400}, 3, true, 1},
		{"404 is permanent", []int{404}, 3, true, 1},
		{"409 after 5xx stops", []int{500, 409}, 3, true, 2},
		{"no retries", []int{500}, 0, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, hits := statusServer(t, tt.codes...)
			a := newAdapter(t, Config{URL: ts.URL, Retries: tt.retries, Timeout: 5 * time.Second})

			err := a.Publish(t.Context(), completedEvent())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Publish() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := hits.Load(); got != tt.wantCalls {
				t.Errorf("requests = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantErr {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Errorf("error %v does not carry *StatusError", err)
				} else if last := tt.codes[len(tt.codes)-1]; statusErr.Code != last {
					t.Errorf("StatusError.Code = %d, want %d", statusErr.Code, last)
				}
			}
		})
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	defer close(release)

	a := newAdapter(t, Config{URL: ts.URL, Timeout: 10 * time.Second})
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if err := a.Publish(ctx, completedEvent()); err == nil {
		t.Fatal("Publish() succeeded on an expired context")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantErr     bool
		wantTimeout time.Duration
	}{
		{"missing url", Config{}, true, 0},
		{"negative retries", Config{URL: "http://example.com", Retries: -1}, true, 0},
		{"default timeout", Config{URL: "http://example.com"}, false, DefaultTimeout},
		{"explicit timeout", Config{URL: "http://example.com", Timeout: time.Second}, false, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if a.config.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", a.config.Timeout, tt.wantTimeout)
			}
		})
	}
}
