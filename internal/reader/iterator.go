package reader

import (
	"fmt"
	"io"

	"github.com/inodb/varkit/internal/index"
	"github.com/inodb/varkit/internal/vcf"
)

// queryBufferCap bounds the per-block read buffer: blocks over 100 MB get
// a 10 MB buffer, everything else is capped at 2 MB or the block size,
// whichever is smaller.
const (
	queryBufferCap      = 2_000_000
	hugeBlockThreshold  = 100_000_000
	hugeBlockBufferSize = 10_000_000
)

func blockBufferSize(size int64) int {
	if size > hugeBlockThreshold {
		return hugeBlockBufferSize
	}
	if size > queryBufferCap {
		return queryBufferCap
	}
	return int(size)
}

// QueryIterator walks the records overlapping one queried interval,
// driving decode across the index blocks for the contig. Only one
// iterator may be active per reader.
type QueryIterator struct {
	r *Reader

	queryContig string
	start, end  int

	// chrAlias is the effective contig name for filtering: on-disk contig
	// naming may differ cosmetically from the query's, so the first
	// decoded record's contig is captured and used from then on.
	chrAlias string
	aliasSet bool

	blocks   []index.Block
	blockPos int

	stream     SeekableStream
	ownsStream bool
	source     *vcf.Source

	lastRecord *vcf.Record
	exhausted  bool
}

func emptyQueryIterator(r *Reader, contig string, start, end int) *QueryIterator {
	return &QueryIterator{r: r, queryContig: contig, start: start, end: end, exhausted: true}
}

func newQueryIterator(r *Reader, contig string, start, end int, blocks []index.Block) (*QueryIterator, error) {
	stream, reused, err := r.getSeekableStream()
	if err != nil {
		return nil, err
	}
	q := &QueryIterator{
		r:           r,
		queryContig: contig,
		start:       start,
		end:         end,
		blocks:      blocks,
		stream:      stream,
		ownsStream:  !reused,
	}
	if err := q.advanceBlock(); err != nil {
		return nil, err
	}
	if q.source == nil {
		q.exhausted = true
	}
	return q, nil
}

// advanceBlock positions the iterator at the start of the next non-empty
// block, or clears the source when the blocks are exhausted.
func (q *QueryIterator) advanceBlock() error {
	for q.blockPos < len(q.blocks) {
		block := q.blocks[q.blockPos]
		q.blockPos++
		if block.Size() <= 0 {
			continue
		}
		bs, err := newBlockStream(q.stream, block)
		if err != nil {
			return fmt.Errorf("seeking to block at byte %d in %s: %w", block.ByteStart, q.r.path, err)
		}
		src := q.r.codec.MakeSourceBuffered(bs, blockBufferSize(block.Size()))
		src.SetName(q.r.path)
		q.source = src
		return nil
	}
	if q.source != nil {
		q.r.codec.CloseSource(q.source)
		q.source = nil
	}
	return nil
}

func (q *QueryIterator) hasMoreBlocks() bool { return q.blockPos < len(q.blocks) }

// Next returns the next record overlapping the query interval, or
// (nil, nil) when the query is exhausted.
func (q *QueryIterator) Next() (*vcf.Record, error) {
	if q.exhausted {
		return nil, nil
	}

blocks:
	for {
		if q.source == nil {
			q.exhausted = true
			return nil, nil
		}
		for !q.r.codec.IsDone(q.source) {
			rec, err := q.r.codec.DecodeSource(q.source)
			if err != nil {
				return nil, q.wrapDecodeError(err)
			}
			if rec == nil {
				continue // skippable line
			}

			if !q.aliasSet {
				// the on-disk contig name of the first record is taken as
				// the query's effective alias
				q.chrAlias = rec.Contig
				q.aliasSet = true
			}

			if rec.Contig != q.chrAlias || rec.Start > q.end {
				// past the productive range of this block
				if q.hasMoreBlocks() {
					if err := q.advanceBlock(); err != nil {
						return nil, err
					}
					continue blocks
				}
				q.exhausted = true
				return nil, nil
			}
			if rec.Stop < q.start {
				continue // leftover overlap from block boundary imprecision
			}

			q.lastRecord = rec
			return rec, nil
		}

		if !q.hasMoreBlocks() {
			q.exhausted = true
			return nil, nil
		}
		if err := q.advanceBlock(); err != nil {
			return nil, err
		}
	}
}

func (q *QueryIterator) wrapDecodeError(err error) error {
	if q.lastRecord == nil {
		alias := q.chrAlias
		if alias == "" {
			alias = q.queryContig
		}
		return fmt.Errorf("error parsing %s at the first record after %s:%d: %w", q.r.path, alias, q.start, err)
	}
	return fmt.Errorf("error parsing %s just after record at %s:%d-%d: %w",
		q.r.path, q.lastRecord.Contig, q.lastRecord.Start, q.lastRecord.Stop, err)
}

// Close releases the query's stream. Reused streams stay open for the
// reader's next query.
func (q *QueryIterator) Close() error {
	if q.source != nil {
		q.r.codec.CloseSource(q.source)
		q.source = nil
	}
	if q.ownsStream && q.stream != nil {
		err := q.stream.Close()
		q.stream = nil
		return err
	}
	return nil
}

// Iterator decodes every record of the file sequentially.
type Iterator struct {
	r          *Reader
	stream     io.ReadCloser
	source     *vcf.Source
	lastRecord *vcf.Record
}

func newIterator(r *Reader) (*Iterator, error) {
	stream, _, err := r.openDecoded()
	if err != nil {
		return nil, err
	}
	// the header was parsed at construction; skip exactly its byte length
	if _, err := io.CopyN(io.Discard, stream, r.headerEnd); err != nil {
		stream.Close()
		return nil, fmt.Errorf("skipping header of %s: %w", r.path, err)
	}
	src := r.codec.MakeSource(stream)
	src.SetName(r.path)
	return &Iterator{r: r, stream: stream, source: src}, nil
}

// Next returns the next record, or (nil, nil) at end of file.
func (it *Iterator) Next() (*vcf.Record, error) {
	for !it.r.codec.IsDone(it.source) {
		rec, err := it.r.codec.DecodeSource(it.source)
		if err != nil {
			if it.lastRecord == nil {
				return nil, fmt.Errorf("error parsing %s at the first record: %w", it.r.path, err)
			}
			return nil, fmt.Errorf("error parsing %s just after record at %s:%d-%d: %w",
				it.r.path, it.lastRecord.Contig, it.lastRecord.Start, it.lastRecord.Stop, err)
		}
		if rec == nil {
			continue
		}
		it.lastRecord = rec
		return rec, nil
	}
	return nil, nil
}

// Close releases the iterator's stream.
func (it *Iterator) Close() error {
	if it.source != nil {
		it.r.codec.CloseSource(it.source)
		it.source = nil
	}
	if it.stream != nil {
		err := it.stream.Close()
		it.stream = nil
		return err
	}
	return nil
}
