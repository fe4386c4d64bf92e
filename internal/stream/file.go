package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// Open resolves a capture file into a Source using FormatAuto.
func Open(path string) (Source, error) {
	return OpenFormat(path, FormatAuto)
}

// OpenFormat resolves a capture file with an explicit format.
func OpenFormat(path string, format Format) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, path, err)
	}

	if format == FormatAuto {
		format = FormatRaw
		if strings.HasSuffix(path, ".lz4") {
			format = FormatLZ4
		}
	}

	src := &fileSource{f: f, r: f}
	if format == FormatLZ4 {
		src.r = lz4.NewReader(f)
	}
	return src, nil
}

// fileSource reads a capture file, optionally through an lz4 frame reader.
type fileSource struct {
	f *os.File
	r io.Reader

	closeOnce sync.Once
	closeErr  error
}

func (s *fileSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Close releases the underlying file. Safe to call more than once.
func (s *fileSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.f.Close()
	})
	return s.closeErr
}
