package reader

import (
	"io"
	"math"

	"github.com/inodb/varkit/internal/index"
)

// blockStream bounds an underlying seekable stream to one index block's
// byte range. Construction seeks to the block start; reads past the block
// end return io.EOF even mid-buffer. Closing is a no-op: the underlying
// stream stays open for the next block.
type blockStream struct {
	stream SeekableStream
	limit  int64 // exclusive end offset
}

func newBlockStream(stream SeekableStream, block index.Block) (*blockStream, error) {
	if err := stream.Seek(block.ByteStart); err != nil {
		return nil, err
	}
	return &blockStream{stream: stream, limit: block.ByteEnd}, nil
}

func (b *blockStream) Read(p []byte) (int, error) {
	remaining := b.limit - b.stream.Position()
	if remaining <= 0 {
		return 0, io.EOF
	}
	// clamp to the in-block remainder, and never request more than a
	// 32-bit count even when the block is larger
	max := int64(len(p))
	if remaining < max {
		max = remaining
	}
	if max > math.MaxInt32 {
		max = math.MaxInt32
	}
	return b.stream.Read(p[:max])
}

// ReadByte reads one byte, honoring the block bound.
func (b *blockStream) ReadByte() (byte, error) {
	var one [1]byte
	n, err := b.Read(one[:])
	if n == 0 && err == nil {
		err = io.EOF
	}
	return one[0], err
}
