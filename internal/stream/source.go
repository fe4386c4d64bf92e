package stream

import (
	"errors"
	"io"
)

// Open failures. Both are fatal to session start and never retried.
var (
	// ErrNotFound means the capture locator does not resolve to a file.
	ErrNotFound = errors.New("capture not found")

	// ErrLocked means the capture exists but cannot be opened for reading.
	ErrLocked = errors.New("capture locked")
)

// Format selects how the raw file bytes are interpreted.
type Format string

const (
	// FormatAuto picks by filename: ".lz4" suffix means lz4, else raw.
	FormatAuto Format = "auto"

	// FormatRaw reads the file bytes as the record stream directly.
	FormatRaw Format = "raw"

	// FormatLZ4 unwraps an lz4 frame around the record stream.
	FormatLZ4 Format = "lz4"
)

// Source is a readable record stream. Close is idempotent and must be
// called on every exit path, including decode failure.
type Source interface {
	io.Reader
	Close() error
}
