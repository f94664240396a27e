// Package iox provides I/O helpers for CLI streams and resource cleanup.
package iox

import (
	"fmt"
	"io"
	"os"
)

// Stdio is the path that selects stdin or stdout.
const Stdio = "-"

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// OpenInput opens path for reading. "" and "-" select stdin, which is
// never closed.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" || path == Stdio {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// CreateOutput creates or truncates path for writing. "" and "-" select
// stdout, which is never closed.
func CreateOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == Stdio {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// IsStdio reports whether path selects stdin or stdout.
func IsStdio(path string) bool {
	return path == "" || path == Stdio
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
