package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/types"
)

// NewApp assembles the chunkyard command tree. The caller installs the
// exit handler.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:    "chunkyard",
		Usage:   "Reassemble chunked uploads into stored objects",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Commands: []*cli.Command{
			SplitCommand(),
			IngestCommand(),
			InspectCommand(),
			ObjectCommand(),
			DebugCommand(),
			VersionCommand(commit),
		},
	}
}
