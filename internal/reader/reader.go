package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/varkit/internal/index"
	"github.com/inodb/varkit/internal/vcf"
)

// MissingIndexError reports a range query against a file with no
// available index.
type MissingIndexError struct {
	Path string
}

func (e *MissingIndexError) Error() string {
	return "index not found for: " + e.Path
}

// Reader decodes a variant file and serves whole-file iteration and, when
// an index sidecar exists, range queries. A Reader supports one iterator
// or query in flight at a time; it is not safe for concurrent use.
type Reader struct {
	path   string
	codec  *vcf.Codec
	header *vcf.Header

	// headerEnd is the byte length of the header in the (decompressed)
	// stream; whole-file iteration skips exactly this much.
	headerEnd int64

	gzipped           bool
	pathIsRegularFile bool

	idx               *index.Index
	needCheckForIndex bool
	requireIndex      bool

	// seekable is the lazily created stream reused across queries on
	// regular files.
	seekable SeekableStream

	logger *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// RequireIndex makes construction fail with a MissingIndexError when no
// index sidecar exists.
func RequireIndex() Option {
	return func(r *Reader) { r.requireIndex = true }
}

// WithLogger installs a logger for reader and codec diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// New opens a variant file, parses its header, and prepares the reader
// for iteration and queries.
func New(path string, opts ...Option) (*Reader, error) {
	r := &Reader{
		path:              path,
		codec:             vcf.NewCodec(),
		needCheckForIndex: true,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.codec.SetLogger(r.logger)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	r.pathIsRegularFile = info.Mode().IsRegular()

	if err := r.readHeader(); err != nil {
		return nil, err
	}

	if r.requireIndex {
		if err := r.loadIndex(); err != nil {
			return nil, err
		}
		if r.idx == nil {
			return nil, &MissingIndexError{Path: path}
		}
	}

	return r, nil
}

// readHeader parses the header once so its end offset is known for
// whole-file iteration.
func (r *Reader) readHeader() error {
	stream, gzipped, err := r.openDecoded()
	if err != nil {
		return err
	}
	defer stream.Close()
	r.gzipped = gzipped

	src := r.codec.MakeSource(stream)
	src.SetName(r.path)
	header, err := r.codec.ReadHeader(src)
	if err != nil {
		return fmt.Errorf("unable to parse header from %s: %w", r.path, err)
	}
	r.header = header
	r.headerEnd = src.Position()
	r.codec.CloseSource(src)
	return nil
}

// openDecoded opens the file for sequential reading, transparently
// gunzipping when the gzip magic is present.
func (r *Reader) openDecoded() (io.ReadCloser, bool, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", r.path, err)
	}
	br := bufio.NewReaderSize(f, 512*1024)
	head, err := br.Peek(2)
	if err == nil && head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, false, fmt.Errorf("gunzip %s: %w", r.path, err)
		}
		return &gzipStream{gz: gz, f: f}, true, nil
	}
	return &bufferedStream{br: br, f: f}, false, nil
}

type gzipStream struct {
	gz *gzip.Reader
	f  *os.File
}

func (s *gzipStream) Read(p []byte) (int, error) { return s.gz.Read(p) }
func (s *gzipStream) Close() error {
	s.gz.Close()
	return s.f.Close()
}

type bufferedStream struct {
	br *bufio.Reader
	f  *os.File
}

func (s *bufferedStream) Read(p []byte) (int, error) { return s.br.Read(p) }
func (s *bufferedStream) Close() error               { return s.f.Close() }

// Header returns the parsed header.
func (r *Reader) Header() *vcf.Header { return r.header }

// Codec returns the codec bound to this reader.
func (r *Reader) Codec() *vcf.Codec { return r.codec }

// Path returns the data file path.
func (r *Reader) Path() string { return r.path }

// loadIndex loads the index sidecar if present. It runs at most once per
// reader; absence is recorded and not re-probed.
func (r *Reader) loadIndex() error {
	if !r.needCheckForIndex {
		return nil
	}
	r.needCheckForIndex = false
	idx, err := index.Load(r.path)
	if err != nil {
		return fmt.Errorf("error loading index file: %w", err)
	}
	if idx == nil {
		r.logger.Debug("no index sidecar found", zap.String("path", r.path))
		return nil
	}
	r.idx = idx
	return nil
}

// HasIndex reports whether an index is available, loading it lazily on
// first call.
func (r *Reader) HasIndex() bool {
	if r.idx == nil && r.needCheckForIndex {
		if err := r.loadIndex(); err != nil {
			r.logger.Warn("index load failed", zap.String("path", r.path), zap.Error(err))
		}
	}
	return r.idx != nil
}

// IsQueryable reports whether range queries can be served.
func (r *Reader) IsQueryable() bool { return r.HasIndex() }

// SequenceNames returns the contig names known to the index, or nothing
// when the file is not indexed.
func (r *Reader) SequenceNames() []string {
	if !r.HasIndex() {
		return nil
	}
	return r.idx.SequenceNames()
}

// InvalidateIndex drops the cached index so the next use re-probes the
// sidecar.
func (r *Reader) InvalidateIndex() {
	r.idx = nil
	r.needCheckForIndex = true
}

// getSeekableStream returns the stream to use for a query. Regular files
// reuse one lazily created stream across queries; other sources get a
// fresh stream the query must close.
func (r *Reader) getSeekableStream() (SeekableStream, bool, error) {
	if r.reuseStreamInQuery() {
		if r.seekable == nil {
			s, err := OpenSeekable(r.path)
			if err != nil {
				return nil, false, err
			}
			r.seekable = s
		}
		return r.seekable, true, nil
	}
	s, err := OpenSeekable(r.path)
	return s, false, err
}

func (r *Reader) reuseStreamInQuery() bool { return r.pathIsRegularFile }

// Query returns an iterator over records overlapping [start, end] on the
// contig. A contig absent from the index yields an empty iterator, not an
// error. Only one query may be in flight per reader.
func (r *Reader) Query(contig string, start, end int) (*QueryIterator, error) {
	if !r.HasIndex() {
		return nil, &MissingIndexError{Path: r.path}
	}
	if r.gzipped {
		return nil, fmt.Errorf("%s is gzipped: range queries require an uncompressed file", r.path)
	}
	if !r.idx.ContainsContig(contig) {
		r.logger.Debug("query contig not in index", zap.String("contig", contig))
		return emptyQueryIterator(r, contig, start, end), nil
	}
	blocks := r.idx.Blocks(contig, start, end)
	return newQueryIterator(r, contig, start, end, blocks)
}

// Iter returns an iterator over every record in the file, in file order.
func (r *Reader) Iter() (*Iterator, error) {
	return newIterator(r)
}

// Close releases the reusable query stream, if one was created.
func (r *Reader) Close() error {
	if r.seekable != nil {
		err := r.seekable.Close()
		r.seekable = nil
		return err
	}
	return nil
}
