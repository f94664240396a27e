package upload

import "errors"

// IngestionErrorKind classifies ingestion errors for exit-code mapping.
type IngestionErrorKind int

const (
	// IngestionErrorStream indicates a frame/stream error. Framing is lost
	// and the stream is abandoned.
	IngestionErrorStream IngestionErrorKind = iota
	// IngestionErrorUpload indicates one or more uploads failed (quota,
	// incomplete, unauthorized, empty, storage). Other uploads proceeded.
	IngestionErrorUpload
	// IngestionErrorCanceled indicates context cancellation.
	IngestionErrorCanceled
)

// String returns the kind name used in logs.
func (k IngestionErrorKind) String() string {
	switch k {
	case IngestionErrorStream:
		return "stream"
	case IngestionErrorUpload:
		return "upload"
	case IngestionErrorCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IngestionError classifies an Engine.Run failure.
type IngestionError struct {
	Kind IngestionErrorKind
	Err  error
}

func (e *IngestionError) Error() string {
	return e.Err.Error()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func ingestionKind(err error) (IngestionErrorKind, bool) {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind, true
	}
	return 0, false
}

// IsStreamError returns true if the error is a stream/frame error.
func IsStreamError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorStream
}

// IsUploadError returns true if the error reports failed uploads.
func IsUploadError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorUpload
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorCanceled
}
