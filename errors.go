package doctext

import (
	"errors"

	"github.com/brunobiangulo/doctext/parser"
)

var (
	// ErrUnsupportedFormat is reported for files whose extension has no extractor.
	ErrUnsupportedFormat = errors.New("doctext: unsupported document format")

	// ErrFileNotFound is reported for paths that do not name an existing file.
	ErrFileNotFound = errors.New("doctext: file does not exist")

	// ErrMissingDependency is reported when an optional parsing capability
	// is not available.
	ErrMissingDependency = parser.ErrUnavailable

	// ErrParseFailure is reported when a file's content cannot be decoded.
	ErrParseFailure = parser.ErrParse

	// ErrNoTextExtracted is returned when no file yielded any text.
	ErrNoTextExtracted = errors.New("doctext: no text could be extracted")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("doctext: invalid configuration")
)
