// Package ipc implements the chunk frame transport.
//
// A stream is a sequence of frames. Each frame is a 4-byte big-endian length
// prefix followed by a msgpack map whose "type" key selects the frame kind
// (see types.FrameType*).
package ipc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/chunkyard/types"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// MaxChunkSize is the maximum chunk payload carried by one frame (8 MiB).
	MaxChunkSize = 8 * 1024 * 1024
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
	// FrameErrorInvalid indicates a well-formed frame with bad contents
	// (unknown type, missing upload id, oversized chunk).
	FrameErrorInvalid
)

// String returns the kind name used in logs.
func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorPartial:
		return "partial"
	case FrameErrorTooLarge:
		return "too_large"
	case FrameErrorDecode:
		return "decode"
	case FrameErrorInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot continue past this error.
// Partial and oversized frames lose framing; decode and invalid errors
// affect one frame only.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// readBufferSize batches small reads from pipes into fewer syscalls.
const readBufferSize = 64 * 1024

// NewFrameDecoder creates a new frame decoder reading through a buffer.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: bufio.NewReaderSize(r, readBufferSize)}
}

// ReadFrame reads a single frame from the stream.
// Returns the raw payload bytes (msgpack-encoded).
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// Next reads and decodes the next frame.
// io.EOF is returned unwrapped at a clean end of stream.
func (d *FrameDecoder) Next() (types.UploadFrame, error) {
	payload, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeFrame(payload)
}

// peekFrameType reads the "type" key of a msgpack map without decoding
// the other values.
func peekFrameType(payload []byte) (string, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return "", err
	}
	for range n {
		key, err := dec.DecodeString()
		if err != nil {
			return "", err
		}
		if key == "type" {
			return dec.DecodeString()
		}
		if err := dec.Skip(); err != nil {
			return "", err
		}
	}
	return "", errors.New("missing type field")
}

// DecodeFrame decodes a payload into the frame struct selected by its type.
func DecodeFrame(payload []byte) (types.UploadFrame, error) {
	frameType, err := peekFrameType(payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode frame type",
			Err:  err,
		}
	}

	var frame types.UploadFrame
	switch frameType {
	case types.FrameTypeChunk:
		frame = &types.ChunkFrame{}
	case types.FrameTypeParallelChunk:
		frame = &types.ParallelChunkFrame{}
	case types.FrameTypeRemoveChunk:
		frame = &types.RemoveChunkFrame{}
	case types.FrameTypeConsolidate:
		frame = &types.ConsolidateFrame{}
	case types.FrameTypeFinalize:
		frame = &types.FinalizeFrame{}
	case types.FrameTypeAbort:
		frame = &types.AbortFrame{}
	default:
		return nil, &FrameError{
			Kind: FrameErrorInvalid,
			Msg:  fmt.Sprintf("unknown frame type %q", frameType),
		}
	}

	if err := msgpack.Unmarshal(payload, frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("failed to decode %s frame", frameType),
			Err:  err,
		}
	}
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func validateFrame(frame types.UploadFrame) error {
	if frame.Upload() == "" {
		return &FrameError{
			Kind: FrameErrorInvalid,
			Msg:  fmt.Sprintf("%s frame has no upload_id", frame.FrameType()),
		}
	}

	var size int
	switch f := frame.(type) {
	case *types.ChunkFrame:
		size = len(f.Data)
	case *types.ParallelChunkFrame:
		size = len(f.Data)
	case *types.FinalizeFrame:
		if f.Key == "" {
			return &FrameError{Kind: FrameErrorInvalid, Msg: "finalize frame has no key"}
		}
	}
	if size > MaxChunkSize {
		return &FrameError{
			Kind: FrameErrorInvalid,
			Msg:  fmt.Sprintf("chunk size %d exceeds maximum %d", size, MaxChunkSize),
		}
	}
	return nil
}
