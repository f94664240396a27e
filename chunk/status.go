package chunk

import "fmt"

// Status is a point-in-time view of both accumulators.
// It is advisory only: it may be stale as soon as it is returned, so
// completeness decisions should use Parallel.IsComplete or MissingIndices.
type Status struct {
	BufferSize         int      `json:"buffer_size" yaml:"buffer_size"`
	ParallelChunkCount int      `json:"parallel_chunk_count" yaml:"parallel_chunk_count"`
	ParallelBufferSize int      `json:"parallel_buffer_size" yaml:"parallel_buffer_size"`
	ParallelChunkIDs   []uint32 `json:"parallel_chunk_ids" yaml:"parallel_chunk_ids"`
}

// Snapshot reads both accumulators without mutating them.
func Snapshot(seq *Sequential, par *Parallel) Status {
	return Status{
		BufferSize:         seq.Size(),
		ParallelChunkCount: par.Count(),
		ParallelBufferSize: par.TotalSize(),
		ParallelChunkIDs:   par.PresentIndices(),
	}
}

func (s Status) String() string {
	return fmt.Sprintf("Sequential buffer: %d bytes\nParallel chunks: %d chunks, %d bytes total\nChunk IDs: %v",
		s.BufferSize, s.ParallelChunkCount, s.ParallelBufferSize, s.ParallelChunkIDs)
}
