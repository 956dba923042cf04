package progressbar

import "errors"

var (
	// ErrInvalidTemplate is returned by New when a line template does not
	// parse or refers to fields a View does not have.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrUnknownAnimation is returned for an unrecognised animation name.
	ErrUnknownAnimation = errors.New("unknown animation")

	// ErrUnknownSink is returned for an unrecognised output name.
	ErrUnknownSink = errors.New("unknown output")

	// ErrInvalidRows is returned by NewManager for a non-positive row count.
	ErrInvalidRows = errors.New("row count must be greater than 0")

	// ErrIndexOutOfRange is returned by Manager methods for unknown indices.
	ErrIndexOutOfRange = errors.New("bar index out of range")
)
