package chunk

import "errors"

// ErrEmptyUpload is returned when consolidation or assembly is attempted
// with no parallel chunks present.
var ErrEmptyUpload = errors.New("no parallel chunks to consolidate")

// Consolidate moves every parallel chunk into seq in ascending index order.
// The previous contents of seq are replaced, not appended to, and par is left
// empty. Returns the number of bytes written to seq.
//
// Indices are concatenated as found; gaps are not detected here. Callers that
// need an atomic complete upload check par.IsComplete first.
func Consolidate(par *Parallel, seq *Sequential) (int, error) {
	if par.Count() == 0 {
		return 0, ErrEmptyUpload
	}

	data := concat(par)
	par.Clear()

	seq.buf = data
	return len(data), nil
}

// Assemble returns the parallel chunks concatenated in ascending index order
// without modifying par. Safe to call repeatedly before a final clear.
func Assemble(par *Parallel) ([]byte, error) {
	if par.Count() == 0 {
		return nil, ErrEmptyUpload
	}
	return concat(par), nil
}

func concat(par *Parallel) []byte {
	out := make([]byte, 0, par.TotalSize())
	for _, id := range par.PresentIndices() {
		out = append(out, par.chunks[id]...)
	}
	return out
}
