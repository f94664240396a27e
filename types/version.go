//nolint:revive // types is a common Go package naming convention
package types

// Version is the canonical chunkyard version.
// The CLI and the frame wire format share this version.
const Version = "0.3.0"

// FrameVersion is the wire format version stamped into split output.
// It moves in lockstep with Version.
const FrameVersion = Version
