package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/cli/render"
	"github.com/pithecene-io/chunkyard/cli/tui"
	"github.com/pithecene-io/chunkyard/iox"
)

// listWarningThreshold triggers a stderr hint for large unbounded lists.
const listWarningThreshold = 500

// ObjectCommand returns the object command with subcommands.
func ObjectCommand() *cli.Command {
	return &cli.Command{
		Name:  "object",
		Usage: "Read and manage stored objects (get, stat, delete, list)",
		Subcommands: []*cli.Command{
			objectGetCommand(),
			objectStatCommand(),
			objectDeleteCommand(),
			objectListCommand(),
		},
	}
}

func objectFlags(extra ...cli.Flag) []cli.Flag {
	return withFlags(ReadOnlyFlags(), []cli.Flag{ConfigFlag}, StorageFlags(), extra)
}

// withStore opens the configured store for the duration of fn.
func withStore(c *cli.Context, fn func(ctx context.Context, s blob.Store) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitUploadError)
	}
	ctx := c.Context
	store, _, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitStorageError)
	}
	defer iox.DiscardClose(store)
	return fn(ctx, store)
}

func keyArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit("object key required", exitUploadError)
	}
	key := c.Args().First()
	if err := blob.ValidateKey(key); err != nil {
		return "", cli.Exit(err.Error(), exitUploadError)
	}
	return key, nil
}

func objectGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Write an object's bytes to a file or stdout",
		ArgsUsage: "<key>",
		Flags: objectFlags(&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Destination (- for stdout)",
			Value:   iox.Stdio,
		}),
		Action: objectGetAction,
	}
}

func objectGetAction(c *cli.Context) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for object get", 1)
	}

	return withStore(c, func(ctx context.Context, s blob.Store) error {
		data, err := s.Get(ctx, key)
		if err != nil {
			return exitErr(err)
		}
		out, err := iox.CreateOutput(c.String("out"))
		if err != nil {
			return cli.Exit(err.Error(), exitUploadError)
		}
		if _, err := out.Write(data); err != nil {
			iox.DiscardClose(out)
			return cli.Exit(fmt.Sprintf("write output: %v", err), exitUploadError)
		}
		return out.Close()
	})
}

func objectStatCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show an object's manifest",
		ArgsUsage: "<key>",
		Flags:     objectFlags(),
		Action:    objectStatAction,
	}
}

func objectStatAction(c *cli.Context) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	return withStore(c, func(ctx context.Context, s blob.Store) error {
		m, err := statObject(ctx, s, key)
		if err != nil {
			return exitErr(err)
		}
		if c.Bool("tui") {
			return r.RenderTUI(tui.ViewObject, m)
		}
		return r.Render(m)
	})
}

// statObject returns the stored manifest, or a size-only manifest for
// objects written without one.
func statObject(ctx context.Context, s blob.Store, key string) (*blob.Manifest, error) {
	m, err := blob.LoadManifest(ctx, s, key)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, blob.ErrNotFound) {
		return nil, err
	}
	size, err := s.Size(ctx, key)
	if err != nil {
		return nil, err
	}
	return &blob.Manifest{Key: key, Size: size}, nil
}

// DeleteResponse is the response for object delete.
type DeleteResponse struct {
	Key             string `json:"key" yaml:"key"`
	Deleted         bool   `json:"deleted" yaml:"deleted"`
	ManifestDeleted bool   `json:"manifest_deleted" yaml:"manifest_deleted"`
}

func objectDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an object and its manifest",
		ArgsUsage: "<key>",
		Flags:     objectFlags(),
		Action:    objectDeleteAction,
	}
}

func objectDeleteAction(c *cli.Context) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for object delete", 1)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	return withStore(c, func(ctx context.Context, s blob.Store) error {
		resp := DeleteResponse{Key: key}
		if resp.Deleted, err = s.Delete(ctx, key); err != nil {
			return exitErr(err)
		}
		if resp.ManifestDeleted, err = s.Delete(ctx, blob.ManifestKey(key)); err != nil {
			return exitErr(err)
		}
		return r.Render(resp)
	})
}

func objectListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List object keys under a prefix",
		ArgsUsage: "[prefix]",
		Flags: objectFlags(
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of keys (0 is unlimited)",
			},
			&cli.BoolFlag{
				Name:  "manifests",
				Usage: "Include manifest keys",
			},
		),
		Action: objectListAction,
	}
}

func objectListAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for object list", 1)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	limit := c.Int("limit")
	if limit < 0 {
		return cli.Exit("--limit must be >= 0", exitUploadError)
	}

	return withStore(c, func(ctx context.Context, s blob.Store) error {
		keys, err := s.List(ctx, c.Args().First())
		if err != nil {
			return exitErr(err)
		}
		keys = filterKeys(keys, c.Bool("manifests"), limit)

		if len(keys) > listWarningThreshold && limit == 0 && isStderrTTY() {
			fmt.Fprintf(os.Stderr, "Warning: returning %d keys. Consider using --limit to reduce output.\n\n", len(keys))
		}
		return r.Render(keys)
	})
}

// filterKeys drops manifest keys unless withManifests and applies limit.
func filterKeys(keys []string, withManifests bool, limit int) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !withManifests && strings.HasSuffix(k, blob.ManifestSuffix) {
			continue
		}
		out = append(out, k)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
