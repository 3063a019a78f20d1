package index

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Extension is the sidecar suffix of an index file.
const Extension = ".vki"

// SidecarPath returns the expected index path for a data file.
func SidecarPath(dataPath string) string {
	return dataPath + Extension
}

// Load reads the index sidecar for a data file, probing the plain
// sidecar path first and a .gz-suffixed variant second. A missing
// sidecar returns (nil, nil): "not indexed" is a valid state.
func Load(dataPath string) (*Index, error) {
	for _, candidate := range []string{SidecarPath(dataPath), SidecarPath(dataPath) + ".gz"} {
		f, err := os.Open(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open index %s: %w", candidate, err)
		}
		defer f.Close()
		idx, err := Read(f)
		if err != nil {
			return nil, fmt.Errorf("read index %s: %w", candidate, err)
		}
		return idx, nil
	}
	return nil, nil
}

// Read parses an index from its gzipped tab-delimited form. Each line is
// one block: contig, position start, position end, byte start, byte end.
func Read(r io.Reader) (*Index, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ungzipping index: %w", err)
	}
	defer gz.Close()

	blocks := make(map[string][]Block)
	var nameOrder []string

	scanner := bufio.NewScanner(gz)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("index line %d: wrong number of columns, got %d, want 5", lineNum, len(fields))
		}

		contig := fields[0]
		var b Block
		if b.PosStart, err = strconv.Atoi(fields[1]); err != nil {
			return nil, fmt.Errorf("index line %d: parsing position start: %w", lineNum, err)
		}
		if b.PosEnd, err = strconv.Atoi(fields[2]); err != nil {
			return nil, fmt.Errorf("index line %d: parsing position end: %w", lineNum, err)
		}
		if b.ByteStart, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: parsing byte start: %w", lineNum, err)
		}
		if b.ByteEnd, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
			return nil, fmt.Errorf("index line %d: parsing byte end: %w", lineNum, err)
		}

		if _, seen := blocks[contig]; !seen {
			nameOrder = append(nameOrder, contig)
		}
		blocks[contig] = append(blocks[contig], b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	return New(blocks, nameOrder), nil
}
