package ipc

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/chunkyard/types"
)

// frameTypePeek is the full-unmarshal baseline for peek benchmarks.
type frameTypePeek struct {
	Type string `msgpack:"type"`
}

func peekFrameTypeUnmarshal(payload []byte) (string, error) {
	var peek frameTypePeek
	if err := msgpack.Unmarshal(payload, &peek); err != nil {
		return "", err
	}
	return peek.Type, nil
}

// buildUploadStream encodes a parallel upload of n chunks of size bytes.
func buildUploadStream(b *testing.B, n, size int) []byte {
	b.Helper()
	var buf bytes.Buffer
	_, err := EncodeUpload(&buf, bytes.Repeat([]byte("x"), n*size), SplitOptions{
		UploadID:  "bench",
		Key:       "bench.bin",
		ChunkSize: size,
		Parallel:  true,
	})
	if err != nil {
		b.Fatalf("EncodeUpload: %v", err)
	}
	return buf.Bytes()
}

// BenchmarkPeekFrameType compares the streaming peek against a full
// unmarshal on a chunk payload where "type" is the first field.
func BenchmarkPeekFrameType(b *testing.B) {
	payload, err := msgpack.Marshal(&types.ParallelChunkFrame{
		Type:     types.FrameTypeParallelChunk,
		UploadID: "bench",
		Index:    1,
		Data:     bytes.Repeat([]byte("x"), 64*1024),
	})
	if err != nil {
		b.Fatal(err)
	}

	b.Run("unmarshal", func(b *testing.B) {
		b.ReportAllocs()
		for range b.N {
			typ, err := peekFrameTypeUnmarshal(payload)
			if err != nil || typ != types.FrameTypeParallelChunk {
				b.Fatalf("got %q, %v", typ, err)
			}
		}
	})

	b.Run("stream", func(b *testing.B) {
		b.ReportAllocs()
		for range b.N {
			typ, err := peekFrameType(payload)
			if err != nil || typ != types.FrameTypeParallelChunk {
				b.Fatalf("got %q, %v", typ, err)
			}
		}
	})
}

// BenchmarkReadFrame_BufferedReader measures ReadFrame over an in-memory stream.
func BenchmarkReadFrame_BufferedReader(b *testing.B) {
	data := buildUploadStream(b, 100, 4096)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		decoder := NewFrameDecoder(bytes.NewReader(data))
		for {
			_, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkReadFrame_OneByteReader simulates a pipe returning one byte per
// read(2). The decoder's buffer batches these into larger reads.
func BenchmarkReadFrame_OneByteReader(b *testing.B) {
	data := buildUploadStream(b, 20, 1024)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		decoder := NewFrameDecoder(iotest.OneByteReader(bytes.NewReader(data)))
		for {
			_, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkDecoderNext measures ReadFrame + DecodeFrame on an upload stream.
func BenchmarkDecoderNext(b *testing.B) {
	data := buildUploadStream(b, 64, 16*1024)

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for range b.N {
		decoder := NewFrameDecoder(bytes.NewReader(data))
		for {
			_, err := decoder.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}
