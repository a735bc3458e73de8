package loader

import (
	"fmt"
	"io"
	"os"

	"aijobsdash/services/dashboard/internal/errors"
)

// Source is a readable tabular dataset.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a CSV file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return s.Path
}

func (s FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.SourceUnavailable(s.Path, err)
	}
	return f, nil
}

// Identity is the cache key of the file: path, size and modification time.
// It changes whenever the file is replaced or rewritten.
func (s FileSource) Identity() (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", errors.SourceUnavailable(s.Path, err)
	}
	return fmt.Sprintf("%s|%d|%d", s.Path, info.Size(), info.ModTime().UnixNano()), nil
}

// ReaderSource adapts an in-memory reader, mostly for tests and piped input.
type ReaderSource struct {
	Label  string
	Reader io.Reader
}

func (s ReaderSource) Name() string {
	return s.Label
}

func (s ReaderSource) Open() (io.ReadCloser, error) {
	if s.Reader == nil {
		return nil, errors.SourceUnavailable(s.Label, fmt.Errorf("nil reader"))
	}
	return io.NopCloser(s.Reader), nil
}
