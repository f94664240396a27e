package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/chunkyard/types"
)

// DefaultChunkSize is the chunk size used by EncodeUpload when none is set.
const DefaultChunkSize = 1024 * 1024

// FrameEncoder writes length-prefixed msgpack frames to a stream.
type FrameEncoder struct {
	writer io.Writer
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteFrame stamps the frame's type discriminant, encodes it and writes
// prefix and payload in a single Write.
func (e *FrameEncoder) WriteFrame(frame types.UploadFrame) error {
	stampType(frame)

	payload, err := msgpack.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", frame.FrameType(), err)
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)

	if _, err := e.writer.Write(buf); err != nil {
		return fmt.Errorf("write %s frame: %w", frame.FrameType(), err)
	}
	return nil
}

func stampType(frame types.UploadFrame) {
	switch f := frame.(type) {
	case *types.ChunkFrame:
		f.Type = types.FrameTypeChunk
	case *types.ParallelChunkFrame:
		f.Type = types.FrameTypeParallelChunk
	case *types.RemoveChunkFrame:
		f.Type = types.FrameTypeRemoveChunk
	case *types.ConsolidateFrame:
		f.Type = types.FrameTypeConsolidate
	case *types.FinalizeFrame:
		f.Type = types.FrameTypeFinalize
	case *types.AbortFrame:
		f.Type = types.FrameTypeAbort
	}
}

// SplitOptions controls how EncodeUpload cuts a payload into frames.
type SplitOptions struct {
	// UploadID is stamped on every frame (required).
	UploadID string
	// Key is the object key carried by the finalize frame (required).
	Key string
	// ContentType is carried by the finalize frame.
	ContentType string
	// ChunkSize is the payload size per frame (default DefaultChunkSize,
	// at most MaxChunkSize).
	ChunkSize int
	// Parallel emits indexed parallel_chunk frames and a finalize frame
	// declaring the expected count.
	Parallel bool
	// Shuffle emits parallel chunks in random order.
	Shuffle bool
	// Seed makes Shuffle deterministic when non-zero.
	Seed uint64
	// Consolidate emits a consolidate frame before a sequential-mode
	// finalize, reassembling parallel chunks into the sequential buffer
	// on the receiving side.
	Consolidate bool
}

// SplitResult summarizes an EncodeUpload call.
type SplitResult struct {
	UploadID   string `json:"upload_id" yaml:"upload_id"`
	Key        string `json:"key" yaml:"key"`
	Mode       string `json:"mode" yaml:"mode"`
	Bytes      int    `json:"bytes" yaml:"bytes"`
	ChunkSize  int    `json:"chunk_size" yaml:"chunk_size"`
	ChunkCount int    `json:"chunk_count" yaml:"chunk_count"`
	Frames     int    `json:"frames" yaml:"frames"`
}

// EncodeUpload splits data into chunk frames followed by a finalize frame.
//
// In parallel mode at least one chunk is emitted so an empty payload still
// finalizes as a one-chunk upload. With Consolidate set, chunks are sent
// as parallel frames, then a consolidate frame, then a sequential finalize.
func EncodeUpload(w io.Writer, data []byte, opts SplitOptions) (*SplitResult, error) {
	if opts.UploadID == "" {
		return nil, errors.New("upload id is required")
	}
	if opts.Key == "" {
		return nil, errors.New("object key is required")
	}
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	if size > MaxChunkSize {
		return nil, fmt.Errorf("chunk size %d exceeds maximum %d", size, MaxChunkSize)
	}

	chunks := splitChunks(data, size, opts.Parallel || opts.Consolidate)
	indexed := opts.Parallel || opts.Consolidate

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	if indexed && opts.Shuffle {
		order = permutation(len(chunks), opts.Seed)
	}

	enc := NewFrameEncoder(w)
	res := &SplitResult{
		UploadID:   opts.UploadID,
		Key:        opts.Key,
		Mode:       "sequential",
		Bytes:      len(data),
		ChunkSize:  size,
		ChunkCount: len(chunks),
	}
	if opts.Parallel {
		res.Mode = "parallel"
	} else if opts.Consolidate {
		res.Mode = "consolidate"
	}

	write := func(f types.UploadFrame) error {
		if err := enc.WriteFrame(f); err != nil {
			return err
		}
		res.Frames++
		return nil
	}

	for _, i := range order {
		var f types.UploadFrame
		if indexed {
			f = &types.ParallelChunkFrame{UploadID: opts.UploadID, Index: uint32(i), Data: chunks[i]}
		} else {
			f = &types.ChunkFrame{UploadID: opts.UploadID, Data: chunks[i]}
		}
		if err := write(f); err != nil {
			return res, err
		}
	}

	if opts.Consolidate && !opts.Parallel {
		if err := write(&types.ConsolidateFrame{UploadID: opts.UploadID}); err != nil {
			return res, err
		}
	}

	fin := &types.FinalizeFrame{
		UploadID:    opts.UploadID,
		Key:         opts.Key,
		ContentType: opts.ContentType,
		Parallel:    opts.Parallel,
	}
	if opts.Parallel {
		fin.ExpectedCount = uint32(len(chunks))
	}
	if err := write(fin); err != nil {
		return res, err
	}
	return res, nil
}

// splitChunks cuts data into size-byte slices. atLeastOne yields a single
// empty chunk for empty data.
func splitChunks(data []byte, size int, atLeastOne bool) [][]byte {
	var chunks [][]byte
	for off := 0; off < len(data); off += size {
		end := min(off+size, len(data))
		chunks = append(chunks, data[off:end])
	}
	if len(chunks) == 0 && atLeastOne {
		chunks = append(chunks, []byte{})
	}
	return chunks
}

func permutation(n int, seed uint64) []int {
	if seed == 0 {
		return rand.Perm(n)
	}
	return rand.New(rand.NewPCG(seed, seed)).Perm(n)
}
