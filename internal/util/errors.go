package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required file or index entry was not found
	ErrNotFound = errors.New("not found")

	// ErrFormat indicates an artifact container holds no recognizable payload
	ErrFormat = errors.New("bad artifact format")

	// ErrInvalidArgument indicates an input is neither a supported raster
	// handle nor a supported path type
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")
)
