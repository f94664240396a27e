package cmd

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/upload"
)

// Exit codes shared by ingest and object commands.
const (
	exitSuccess      = 0
	exitUploadError  = 1
	exitStreamError  = 2
	exitStorageError = 3
)

// exitCode maps an error to a process exit code. A storage failure
// anywhere in the chain takes precedence.
func exitCode(err error) int {
	var storageErr *blob.StorageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &storageErr):
		return exitStorageError
	case upload.IsStreamError(err), upload.IsCanceledError(err):
		return exitStreamError
	default:
		return exitUploadError
	}
}

// exitErr wraps err in a cli.Exit with its mapped code.
func exitErr(err error) error {
	if err == nil {
		return nil
	}
	return cli.Exit(err.Error(), exitCode(err))
}
