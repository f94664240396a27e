package chunk

import (
	"bytes"
	"slices"
)

// Parallel holds index-tagged chunks that may arrive in any order.
// An index maps to at most one payload; re-appending an index replaces it.
type Parallel struct {
	chunks map[uint32][]byte
	total  int
}

// NewParallel creates an empty parallel accumulator.
func NewParallel() *Parallel {
	return &Parallel{chunks: make(map[uint32][]byte)}
}

// Append stores data at index, replacing any previous payload (last write wins).
// The payload is copied so callers may reuse their buffer.
func (p *Parallel) Append(index uint32, data []byte) {
	if old, ok := p.chunks[index]; ok {
		p.total -= len(old)
	}
	p.chunks[index] = bytes.Clone(data)
	p.total += len(data)
}

// PayloadSize returns the size of the payload stored at index.
func (p *Parallel) PayloadSize(index uint32) (int, bool) {
	data, ok := p.chunks[index]
	return len(data), ok
}

// Count returns the number of stored chunks.
func (p *Parallel) Count() int {
	return len(p.chunks)
}

// TotalSize returns the sum of all stored payload lengths.
func (p *Parallel) TotalSize() int {
	return p.total
}

// PresentIndices returns the stored indices in ascending order.
func (p *Parallel) PresentIndices() []uint32 {
	ids := make([]uint32, 0, len(p.chunks))
	for id := range p.chunks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsComplete reports whether exactly expected chunks are stored and every
// index in [0, expected) is present. Extra indices make the set incomplete.
func (p *Parallel) IsComplete(expected uint32) bool {
	if uint64(len(p.chunks)) != uint64(expected) {
		return false
	}
	for i := uint32(0); i < expected; i++ {
		if _, ok := p.chunks[i]; !ok {
			return false
		}
	}
	return true
}

// MissingIndices returns the indices in [0, expected) that are not stored,
// in ascending order. Indices >= expected do not affect the result.
func (p *Parallel) MissingIndices(expected uint32) []uint32 {
	missing := []uint32{}
	for i := uint32(0); i < expected; i++ {
		if _, ok := p.chunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Remove deletes the chunk at index and reports whether it existed.
func (p *Parallel) Remove(index uint32) bool {
	data, ok := p.chunks[index]
	if !ok {
		return false
	}
	delete(p.chunks, index)
	p.total -= len(data)
	return true
}

// Clear drops every stored chunk.
func (p *Parallel) Clear() {
	p.chunks = make(map[uint32][]byte)
	p.total = 0
}
