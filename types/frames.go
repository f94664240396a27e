//nolint:revive // types is a common Go package naming convention
package types

// Frame type discriminants. Every frame payload is a msgpack map carrying
// a "type" key with one of these values.
const (
	FrameTypeChunk         = "chunk"
	FrameTypeParallelChunk = "parallel_chunk"
	FrameTypeRemoveChunk   = "remove_chunk"
	FrameTypeConsolidate   = "consolidate"
	FrameTypeFinalize      = "finalize"
	FrameTypeAbort         = "abort"
)

// UploadFrame is implemented by every decoded frame.
type UploadFrame interface {
	// FrameType returns the type discriminant.
	FrameType() string
	// Upload returns the client-chosen upload identifier.
	Upload() string
}

// ChunkFrame appends data to the sequential buffer of an upload.
type ChunkFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
	Data     []byte `msgpack:"data"`
}

// ParallelChunkFrame stores data at a chunk index of an upload.
// Sending the same index again replaces the earlier payload.
type ParallelChunkFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
	Index    uint32 `msgpack:"index"`
	Data     []byte `msgpack:"data"`
}

// RemoveChunkFrame discards the parallel chunk at Index.
type RemoveChunkFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
	Index    uint32 `msgpack:"index"`
}

// ConsolidateFrame merges parallel chunks into the sequential buffer.
type ConsolidateFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
}

// FinalizeFrame persists an upload under Key and ends its session.
type FinalizeFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
	// Key is the object key to write.
	Key string `msgpack:"key"`
	// Parallel selects the parallel buffer as the object source.
	Parallel bool `msgpack:"parallel"`
	// ExpectedCount, when > 0, requires indices [0, ExpectedCount) and
	// nothing else before a parallel upload is persisted.
	ExpectedCount uint32 `msgpack:"expected_count,omitempty"`
	// ContentType is recorded in the manifest.
	ContentType string `msgpack:"content_type,omitempty"`
}

// AbortFrame drops an upload without persisting.
type AbortFrame struct {
	Type     string `msgpack:"type"`
	UploadID string `msgpack:"upload_id"`
}

func (f *ChunkFrame) FrameType() string         { return FrameTypeChunk }
func (f *ParallelChunkFrame) FrameType() string { return FrameTypeParallelChunk }
func (f *RemoveChunkFrame) FrameType() string   { return FrameTypeRemoveChunk }
func (f *ConsolidateFrame) FrameType() string   { return FrameTypeConsolidate }
func (f *FinalizeFrame) FrameType() string      { return FrameTypeFinalize }
func (f *AbortFrame) FrameType() string         { return FrameTypeAbort }

func (f *ChunkFrame) Upload() string         { return f.UploadID }
func (f *ParallelChunkFrame) Upload() string { return f.UploadID }
func (f *RemoveChunkFrame) Upload() string   { return f.UploadID }
func (f *ConsolidateFrame) Upload() string   { return f.UploadID }
func (f *FinalizeFrame) Upload() string      { return f.UploadID }
func (f *AbortFrame) Upload() string         { return f.UploadID }
