package vcf

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// bgzfMagic is the fixed prefix of a block-gzipped (BGZF) member: a gzip
// header with FEXTRA set.
var bgzfMagic = []byte{0x1f, 0x8b, 0x08, 0x04}

// CanDecodeFile reports whether the file at path starts with the VCF
// magic, probed against the raw bytes, the gunzipped bytes, and the
// block-gunzipped bytes, in that order. Any I/O failure during probing
// means "not recognized" rather than an error.
func CanDecodeFile(path string) bool {
	return sniffRaw(path) || sniffGzip(path) || sniffBlockGzip(path)
}

func sniffRaw(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return hasMagic(f)
}

func sniffGzip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()
	return hasMagic(gz)
}

func sniffBlockGzip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(bgzfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, bgzfMagic) {
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()
	gz.Multistream(true)
	return hasMagic(gz)
}

func hasMagic(r io.Reader) bool {
	buf := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return string(buf) == Magic
}
