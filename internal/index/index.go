// Package index models the precomputed block index consumed by range
// queries: a mapping of contig name to ordered byte-range blocks, each
// known to contain only records overlapping a position range.
package index

import "sort"

// Block is one contiguous byte range of the data file, covering records
// in [PosStart, PosEnd] on its contig.
type Block struct {
	PosStart  int
	PosEnd    int
	ByteStart int64
	ByteEnd   int64
}

// Size returns the declared byte size of the block.
func (b Block) Size() int64 { return b.ByteEnd - b.ByteStart }

// contigIndex holds one contig's blocks sorted by PosStart, plus a
// suffix-max array over PosEnd for overlap pruning.
type contigIndex struct {
	blocks []Block
	maxEnd []int // maxEnd[i] = max(PosEnd) for blocks[i:]
}

// Index maps contig names to their ordered block lists. An Index is
// immutable after construction.
type Index struct {
	contigs map[string]*contigIndex
	names   []string
}

// New builds an index from per-contig block lists. Blocks are sorted by
// position start per contig; contig name order is preserved.
func New(blocks map[string][]Block, nameOrder []string) *Index {
	idx := &Index{contigs: make(map[string]*contigIndex, len(blocks))}
	for _, name := range nameOrder {
		bs := blocks[name]
		sort.Slice(bs, func(i, j int) bool { return bs[i].PosStart < bs[j].PosStart })
		ci := &contigIndex{blocks: bs}
		if len(bs) > 0 {
			ci.maxEnd = make([]int, len(bs))
			ci.maxEnd[len(bs)-1] = bs[len(bs)-1].PosEnd
			for i := len(bs) - 2; i >= 0; i-- {
				ci.maxEnd[i] = bs[i].PosEnd
				if ci.maxEnd[i+1] > ci.maxEnd[i] {
					ci.maxEnd[i] = ci.maxEnd[i+1]
				}
			}
		}
		idx.contigs[name] = ci
		idx.names = append(idx.names, name)
	}
	return idx
}

// SequenceNames returns the contig names known to the index, in index
// order.
func (idx *Index) SequenceNames() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// ContainsContig reports whether the index has entries for a contig.
func (idx *Index) ContainsContig(contig string) bool {
	_, ok := idx.contigs[contig]
	return ok
}

// Blocks returns the blocks whose position range overlaps [start, end] on
// the contig, in file order. A contig absent from the index yields nil.
func (idx *Index) Blocks(contig string, start, end int) []Block {
	ci, ok := idx.contigs[contig]
	if !ok || len(ci.blocks) == 0 {
		return nil
	}

	// candidates have PosStart <= end; prune the prefix whose suffix-max
	// PosEnd falls short of start
	hi := sort.Search(len(ci.blocks), func(i int) bool {
		return ci.blocks[i].PosStart > end
	})

	lo := 0
	for lo < hi && ci.maxEnd[lo] < start {
		lo++
	}

	var out []Block
	for i := lo; i < hi; i++ {
		if ci.blocks[i].PosEnd >= start {
			out = append(out, ci.blocks[i])
		}
	}
	return out
}
