package upload

import (
	"fmt"
	"strconv"

	"github.com/pithecene-io/chunkyard/chunk"
	"github.com/pithecene-io/chunkyard/metrics"
)

// UploadState is the lifecycle position of an upload seen by the Engine.
type UploadState string

// Upload states.
const (
	// StateOpen: frames received, no finalize yet.
	StateOpen UploadState = "open"
	// StateReady: dry-run finalize seen and the upload would persist.
	StateReady UploadState = "ready"
	// StateIncomplete: dry-run finalize seen but chunks are missing.
	StateIncomplete UploadState = "incomplete"
	// StateFinalized: persisted.
	StateFinalized UploadState = "finalized"
	// StateAborted: dropped by an abort frame.
	StateAborted UploadState = "aborted"
	// StateFailed: an operation on the upload failed; later frames are ignored.
	StateFailed UploadState = "failed"
	// StateExpired: reclaimed by the idle sweep at end of stream.
	StateExpired UploadState = "expired"
)

// UploadReport is the Engine's per-upload result.
type UploadReport struct {
	UploadID      string       `json:"upload_id" yaml:"upload_id"`
	SessionID     string       `json:"session_id" yaml:"session_id"`
	State         UploadState  `json:"state" yaml:"state"`
	Mode          string       `json:"mode,omitempty" yaml:"mode,omitempty"`
	Key           string       `json:"key,omitempty" yaml:"key,omitempty"`
	Frames        int          `json:"frames" yaml:"frames"`
	Ignored       int          `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	ExpectedCount uint32       `json:"expected_count,omitempty" yaml:"expected_count,omitempty"`
	Complete      bool         `json:"complete" yaml:"complete"`
	Missing       []uint32     `json:"missing,omitempty" yaml:"missing,omitempty"`
	Size          int64        `json:"size" yaml:"size"`
	Status        chunk.Status `json:"status" yaml:"status"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes one Engine run.
type Report struct {
	DryRun  bool             `json:"dry_run" yaml:"dry_run"`
	Frames  int              `json:"frames" yaml:"frames"`
	Uploads []*UploadReport  `json:"uploads" yaml:"uploads"`
	Metrics metrics.Snapshot `json:"metrics" yaml:"metrics"`
}

// Counts tallies uploads by state.
func (r *Report) Counts() map[UploadState]int {
	counts := make(map[UploadState]int)
	for _, u := range r.Uploads {
		counts[u.State]++
	}
	return counts
}

// Failed returns the uploads in StateFailed.
func (r *Report) Failed() []*UploadReport {
	var failed []*UploadReport
	for _, u := range r.Uploads {
		if u.State == StateFailed {
			failed = append(failed, u)
		}
	}
	return failed
}

// TableHeaders implements render.Table.
func (r *Report) TableHeaders() []string {
	return []string{"UPLOAD", "STATE", "MODE", "KEY", "FRAMES", "SIZE", "MISSING", "ERROR"}
}

// TableRows implements render.Table.
func (r *Report) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Uploads))
	for _, u := range r.Uploads {
		missing := ""
		if len(u.Missing) > 0 {
			missing = fmt.Sprint(u.Missing)
		}
		rows = append(rows, []string{
			u.UploadID,
			string(u.State),
			u.Mode,
			u.Key,
			strconv.Itoa(u.Frames),
			strconv.FormatInt(u.Size, 10),
			missing,
			u.Error,
		})
	}
	return rows
}
