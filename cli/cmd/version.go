package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/cli/render"
	"github.com/pithecene-io/chunkyard/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version      string `json:"version"`
	FrameVersion string `json:"frame_version"`
	Commit       string `json:"commit"`
}

// VersionCommand returns the version command.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for version command", 1)
		}
		return r.Render(VersionResponse{
			Version:      types.Version,
			FrameVersion: types.FrameVersion,
			Commit:       commit,
		})
	}
}
