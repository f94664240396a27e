package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/cli/render"
	"github.com/pithecene-io/chunkyard/ipc"
	"github.com/pithecene-io/chunkyard/iox"
)

// SplitCommand returns the split command, which turns a file into a
// chunk frame stream for ingest.
func SplitCommand() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Split a file into a chunk frame stream",
		ArgsUsage: "<file|->",
		Flags: withFlags(ReadOnlyFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Frame stream destination (- for stdout)",
				Value:   iox.Stdio,
			},
			&cli.StringFlag{
				Name:  "upload-id",
				Usage: "Upload ID stamped on every frame (default: random UUID)",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Object key for the finalize frame (default: file name)",
			},
			&cli.StringFlag{
				Name:  "content-type",
				Usage: "Content type recorded in the manifest",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Bytes per chunk frame",
				Value: ipc.DefaultChunkSize,
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Emit indexed parallel chunks",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Emit parallel chunks out of order",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Shuffle seed (0 is random)",
			},
			&cli.BoolFlag{
				Name:  "consolidate",
				Usage: "Send parallel chunks, consolidate, then finalize sequentially",
			},
		}),
		Action: splitAction,
	}
}

func splitAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("input file required (use - for stdin)", 1)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for split command", 1)
	}
	input := c.Args().First()

	key := c.String("key")
	if key == "" {
		if iox.IsStdio(input) {
			return cli.Exit("--key is required when reading stdin", 1)
		}
		key = filepath.Base(input)
	}
	uploadID := c.String("upload-id")
	if uploadID == "" {
		uploadID = uuid.NewString()
	}

	// The summary goes to stderr when frames go to stdout.
	summaryOut := os.Stdout
	if iox.IsStdio(c.String("out")) {
		summaryOut = os.Stderr
	}
	r, err := render.NewRendererTo(c, summaryOut)
	if err != nil {
		return err
	}

	in, err := iox.OpenInput(input)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer iox.DiscardClose(in)
	data, err := io.ReadAll(in)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read input: %v", err), 1)
	}

	out, err := iox.CreateOutput(c.String("out"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	result, err := ipc.EncodeUpload(out, data, ipc.SplitOptions{
		UploadID:    uploadID,
		Key:         key,
		ContentType: c.String("content-type"),
		ChunkSize:   c.Int("chunk-size"),
		Parallel:    c.Bool("parallel"),
		Shuffle:     c.Bool("shuffle"),
		Seed:        c.Uint64("seed"),
		Consolidate: c.Bool("consolidate"),
	})
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("split failed: %v", err), 1)
	}

	return r.Render(result)
}
