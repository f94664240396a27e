package upload

import "testing"

func TestReport_CountsAndFailed(t *testing.T) {
	r := &Report{Uploads: []*UploadReport{
		{UploadID: "a", State: StateFinalized},
		{UploadID: "b", State: StateFailed, Error: "boom"},
		{UploadID: "c", State: StateFinalized},
	}}

	counts := r.Counts()
	if counts[StateFinalized] != 2 || counts[StateFailed] != 1 {
		t.Errorf("Counts() = %v", counts)
	}
	failed := r.Failed()
	if len(failed) != 1 || failed[0].UploadID != "b" {
		t.Errorf("Failed() = %v", failed)
	}
}

func TestReport_TableRows(t *testing.T) {
	r := &Report{Uploads: []*UploadReport{
		{UploadID: "u1", State: StateIncomplete, Mode: "parallel", Key: "k", Frames: 3, Size: 9, Missing: []uint32{1, 2}},
	}}

	rows := r.TableRows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if len(rows[0]) != len(r.TableHeaders()) {
		t.Fatalf("row width %d != header width %d", len(rows[0]), len(r.TableHeaders()))
	}
	if rows[0][4] != "3" || rows[0][5] != "9" || rows[0][6] != "[1 2]" {
		t.Errorf("row = %v", rows[0])
	}
}
