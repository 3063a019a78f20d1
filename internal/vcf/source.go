package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Source is a positioned line source for one decode stream. Every source
// owns its own DecodeContext, so distinct sources may be driven from
// distinct workers against one shared codec.
type Source struct {
	br   *bufio.Reader
	pos  int64
	ctx  *DecodeContext
	name string

	err error
}

const defaultSourceBufferSize = 512 * 1024

// MakeSource wraps a stream for decoding with the default buffer size.
func (c *Codec) MakeSource(r io.Reader) *Source {
	return c.MakeSourceBuffered(r, defaultSourceBufferSize)
}

// MakeSourceBuffered wraps a stream with an explicit buffer size; the
// query engine scales this with the block size.
func (c *Codec) MakeSourceBuffered(r io.Reader, bufferSize int) *Source {
	if bufferSize < 16 {
		bufferSize = 16
	}
	return &Source{
		br:  bufio.NewReaderSize(r, bufferSize),
		ctx: NewDecodeContext(),
	}
}

// SetName attaches a display name (usually the file path) used in error
// context.
func (s *Source) SetName(name string) { s.name = name }

func (s *Source) String() string {
	if s.name == "" {
		return "stream"
	}
	return s.name
}

// Position returns the byte offset consumed so far.
func (s *Source) Position() int64 { return s.pos }

// readLine returns the next line with the trailing newline stripped. The
// consumed byte count includes the newline.
func (s *Source) readLine() (string, error) {
	line, err := s.br.ReadString('\n')
	s.pos += int64(len(line))
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// IsDone reports whether the source has no further bytes.
func (c *Codec) IsDone(s *Source) bool {
	if s.err != nil {
		return true
	}
	_, err := s.br.Peek(1)
	return err == io.EOF
}

// DecodeSource decodes the next line from the source. Header-marker and
// empty lines yield (nil, nil), which callers skip.
func (c *Codec) DecodeSource(s *Source) (*Record, error) {
	line, err := s.readLine()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		s.err = err
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	return c.DecodeLine(s.ctx, line, true)
}

// CloseSource releases the source. The underlying stream is owned by the
// caller and is not closed here.
func (c *Codec) CloseSource(s *Source) {
	s.br = nil
	s.ctx = nil
}

// ReadHeader consumes the header lines from the source, establishes the
// resulting header on the codec, and leaves the source positioned at the
// first data line. The source position after the call is the header's
// byte length.
func (c *Codec) ReadHeader(s *Source) (*Header, error) {
	var headerStrings []string
	for {
		peeked, err := s.br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("the header has no #CHROM column line")
			}
			return nil, err
		}
		if peeked[0] != '#' {
			return nil, fmt.Errorf("expected a header line starting with %q", HeaderIndicator)
		}
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}
		headerStrings = append(headerStrings, line)
		if !strings.HasPrefix(line, MetadataIndicator) {
			// the single-# column line ends the header
			break
		}
	}
	header, err := ParseHeaderLines(headerStrings)
	if err != nil {
		return nil, err
	}
	return c.SetHeader(header)
}
