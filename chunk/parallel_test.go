package chunk

import (
	"slices"
	"testing"
)

func TestParallel_OutOfOrder(t *testing.T) {
	p := NewParallel()

	p.Append(2, []byte{5, 6})
	p.Append(0, []byte{1, 2})
	p.Append(1, []byte{3, 4})

	if p.Count() != 3 {
		t.Errorf("Count() = %d, want 3", p.Count())
	}
	if p.TotalSize() != 6 {
		t.Errorf("TotalSize() = %d, want 6", p.TotalSize())
	}
	if !p.IsComplete(3) {
		t.Error("IsComplete(3) = false, want true")
	}
	if p.IsComplete(4) {
		t.Error("IsComplete(4) = true, want false")
	}
	if got := p.PresentIndices(); !slices.Equal(got, []uint32{0, 1, 2}) {
		t.Errorf("PresentIndices() = %v, want [0 1 2]", got)
	}
}

func TestParallel_MissingIndices_ReportsGap(t *testing.T) {
	p := NewParallel()
	p.Append(0, []byte{1, 2})
	p.Append(2, []byte{5, 6})

	if got := p.MissingIndices(3); !slices.Equal(got, []uint32{1}) {
		t.Errorf("MissingIndices(3) = %v, want [1]", got)
	}
	if p.IsComplete(3) {
		t.Error("IsComplete(3) = true, want false")
	}
}

func TestParallel_ExtraIndicesAreNotComplete(t *testing.T) {
	p := NewParallel()
	p.Append(0, []byte("a"))
	p.Append(1, []byte("b"))
	p.Append(7, []byte("stray"))

	if p.IsComplete(2) {
		t.Error("IsComplete(2) with a stray index = true, want false")
	}
	// Missing ignores indices beyond expected
	if got := p.MissingIndices(2); len(got) != 0 {
		t.Errorf("MissingIndices(2) = %v, want []", got)
	}
}

func TestParallel_ZeroExpected(t *testing.T) {
	p := NewParallel()
	if !p.IsComplete(0) {
		t.Error("empty map IsComplete(0) = false, want true")
	}
	if got := p.MissingIndices(0); len(got) != 0 {
		t.Errorf("MissingIndices(0) = %v, want []", got)
	}

	p.Append(0, []byte("x"))
	if p.IsComplete(0) {
		t.Error("non-empty map IsComplete(0) = true, want false")
	}
}

func TestParallel_OverwriteIsLastWriteWins(t *testing.T) {
	p := NewParallel()
	p.Append(0, []byte("first"))
	p.Append(0, []byte("second!"))

	if p.Count() != 1 {
		t.Errorf("Count() after duplicate insert = %d, want 1", p.Count())
	}
	if p.TotalSize() != len("second!") {
		t.Errorf("TotalSize() = %d, want %d", p.TotalSize(), len("second!"))
	}

	data, err := Assemble(p)
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if string(data) != "second!" {
		t.Errorf("Assemble() = %q, want %q", data, "second!")
	}
}

func TestParallel_AppendCopiesPayload(t *testing.T) {
	p := NewParallel()
	buf := []byte("abc")
	p.Append(0, buf)
	buf[0] = 'Z'

	data, err := Assemble(p)
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("Assemble() = %q, want %q", data, "abc")
	}
}

func TestParallel_Remove(t *testing.T) {
	p := NewParallel()

	if p.Remove(0) {
		t.Error("Remove(0) on empty map = true, want false")
	}

	p.Append(0, []byte{1, 2})
	p.Append(1, []byte{3, 4})
	before := p.Count()

	if !p.Remove(0) {
		t.Error("Remove(0) after insert = false, want true")
	}
	if p.Count() != before-1 {
		t.Errorf("Count() after Remove = %d, want %d", p.Count(), before-1)
	}
	if p.Remove(0) {
		t.Error("second Remove(0) = true, want false")
	}
	if p.TotalSize() != 2 {
		t.Errorf("TotalSize() after Remove = %d, want 2", p.TotalSize())
	}
}

func TestParallel_Clear(t *testing.T) {
	p := NewParallel()
	p.Append(0, []byte("a"))
	p.Append(5, []byte("b"))
	p.Clear()

	if p.Count() != 0 || p.TotalSize() != 0 {
		t.Errorf("after Clear: Count=%d TotalSize=%d, want 0/0", p.Count(), p.TotalSize())
	}
	if len(p.PresentIndices()) != 0 {
		t.Errorf("PresentIndices() after Clear = %v, want []", p.PresentIndices())
	}
}

func TestParallel_MissingIsComplementOfPresent(t *testing.T) {
	p := NewParallel()
	for _, id := range []uint32{9, 3, 0, 4, 12} {
		p.Append(id, []byte{byte(id)})
	}

	const n = 10
	present := map[uint32]bool{}
	for _, id := range p.PresentIndices() {
		present[id] = true
	}

	var want []uint32
	for i := uint32(0); i < n; i++ {
		if !present[i] {
			want = append(want, i)
		}
	}

	got := p.MissingIndices(n)
	if !slices.Equal(got, want) {
		t.Errorf("MissingIndices(%d) = %v, want %v", n, got, want)
	}

	complete := len(got) == 0 && p.Count() == n
	if p.IsComplete(n) != complete {
		t.Errorf("IsComplete(%d) = %v, want %v", n, p.IsComplete(n), complete)
	}
}
