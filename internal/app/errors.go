package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedFormat   = errors.New("unsupported snapshot format")
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")
)
