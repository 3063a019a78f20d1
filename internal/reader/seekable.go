// Package reader provides whole-file and index-driven range retrieval
// over variant files.
package reader

import (
	"fmt"
	"io"
	"os"
)

// SeekableStream is a positioned, seekable byte stream over a data file.
// Implementations are not safe for concurrent use.
type SeekableStream interface {
	io.Reader
	io.Closer

	// Seek moves the stream to an absolute byte offset.
	Seek(offset int64) error

	// Position returns the current absolute byte offset.
	Position() int64
}

// fileStream is a SeekableStream over a local file.
type fileStream struct {
	f   *os.File
	pos int64
}

// OpenSeekable opens a local file as a SeekableStream.
func OpenSeekable(path string) (SeekableStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fileStream{f: f}, nil
}

func (s *fileStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *fileStream) Seek(offset int64) error {
	if _, err := s.f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	s.pos = offset
	return nil
}

func (s *fileStream) Position() int64 { return s.pos }

func (s *fileStream) Close() error { return s.f.Close() }
