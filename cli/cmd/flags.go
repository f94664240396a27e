// Package cmd provides CLI commands for the chunkyard binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the interactive viewer.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, ingest, object stat only)",
	}
)

// ReadOnlyFlags returns the output flags shared by every command.
// --tui is always accepted so commands without a viewer can reject it
// with a clear message instead of "flag provided but not defined".
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// ConfigFlag points at chunkyard.yaml.
var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to chunkyard.yaml",
	EnvVars: []string{"CHUNKYARD_CONFIG"},
}

// StorageFlags override the storage section of the config file.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Object store backend: fs, memory, s3, or redis",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Store location (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint for R2, MinIO, and other S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
		&cli.StringFlag{
			Name:  "storage-redis-url",
			Usage: "Redis URL for the redis backend",
		},
	}
}

// SessionFlags override principal and limits.
func SessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "principal",
			Usage:   "Principal that owns the uploads in the stream",
			EnvVars: []string{"CHUNKYARD_PRINCIPAL"},
		},
		&cli.UintFlag{
			Name:  "max-chunks",
			Usage: "Per-upload chunk limit (0 uses config or default)",
		},
		&cli.Int64Flag{
			Name:  "max-bytes",
			Usage: "Per-upload byte limit (0 uses config or default)",
		},
		&cli.DurationFlag{
			Name:  "idle-timeout",
			Usage: "Expire uploads idle this long when the stream ends (0 keeps them)",
		},
	}
}

// InputFlag names the frame stream to read.
var InputFlag = &cli.StringFlag{
	Name:    "input",
	Aliases: []string{"i"},
	Usage:   "Frame stream to read (- for stdin)",
	Value:   "-",
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
