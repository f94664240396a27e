package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/cli/render"
	"github.com/pithecene-io/chunkyard/ipc"
	"github.com/pithecene-io/chunkyard/iox"
	"github.com/pithecene-io/chunkyard/types"
)

// DebugCommand returns the debug command with subcommands.
// Debug commands are read-only diagnostics.
func DebugCommand() *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Diagnostic tools (frames)",
		Subcommands: []*cli.Command{
			debugFramesCommand(),
		},
	}
}

// FrameSummary describes one decoded frame without its payload.
type FrameSummary struct {
	Seq      int    `json:"seq" yaml:"seq"`
	Type     string `json:"type" yaml:"type"`
	UploadID string `json:"upload_id" yaml:"upload_id"`
	Index    string `json:"index,omitempty" yaml:"index,omitempty"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func debugFramesCommand() *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "Decode a frame stream and list its frames",
		ArgsUsage: "[file|-]",
		Flags:     ReadOnlyFlags(),
		Action:    debugFramesAction,
	}
}

func debugFramesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for debug commands", 1)
	}

	in, err := iox.OpenInput(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitStreamError)
	}
	defer iox.DiscardClose(in)

	frames, decodeErr := summarizeFrames(in)
	if err := r.Render(frames); err != nil {
		return err
	}
	if decodeErr != nil {
		return cli.Exit(fmt.Sprintf("frame %d: %v", len(frames)+1, decodeErr), exitStreamError)
	}
	return nil
}

// summarizeFrames decodes r until EOF or the first error and returns the
// frames read so far.
func summarizeFrames(r io.Reader) ([]FrameSummary, error) {
	dec := ipc.NewFrameDecoder(r)
	var out []FrameSummary
	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, summarizeFrame(len(out)+1, frame))
	}
}

func summarizeFrame(seq int, frame types.UploadFrame) FrameSummary {
	s := FrameSummary{Seq: seq, Type: frame.FrameType(), UploadID: frame.Upload()}
	switch f := frame.(type) {
	case *types.ChunkFrame:
		s.Bytes = len(f.Data)
	case *types.ParallelChunkFrame:
		s.Index = fmt.Sprint(f.Index)
		s.Bytes = len(f.Data)
	case *types.RemoveChunkFrame:
		s.Index = fmt.Sprint(f.Index)
	case *types.FinalizeFrame:
		s.Detail = "key=" + f.Key
		if f.Parallel {
			s.Detail += fmt.Sprintf(" parallel expected=%d", f.ExpectedCount)
		}
		if f.ContentType != "" {
			s.Detail += " content_type=" + f.ContentType
		}
	}
	return s
}
