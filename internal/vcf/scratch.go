package vcf

import "strings"

// DecodeContext holds the per-worker scratch state for decoding: reusable
// split buffers sized to the header's column count, a context-lifetime
// string intern cache, and per-line memoization caches. A context must not
// be shared between concurrent workers; the codec itself is safe to share.
type DecodeContext struct {
	parts         []string
	genotypeParts []string

	// stringCache interns strings that repeat across millions of lines
	// (contigs, filter encodings) so each distinct value is stored once.
	stringCache map[string]string

	// filterCache memoizes filter-field splits for the context's lifetime.
	filterCache map[string][]string

	// alleleCache maps raw GT tokens to resolved allele lists. GT strings
	// repeat across the samples of one line; the cache is cleared per line.
	alleleCache map[string][]*Allele
}

// NewDecodeContext creates scratch state for one decoding worker.
func NewDecodeContext() *DecodeContext {
	return &DecodeContext{
		stringCache: make(map[string]string),
		filterCache: make(map[string][]string),
		alleleCache: make(map[string][]*Allele, 3),
	}
}

// intern returns the canonical copy of s, storing one if none exists.
func (ctx *DecodeContext) intern(s string) string {
	if cached, ok := ctx.stringCache[s]; ok {
		return cached
	}
	owned := strings.Clone(s)
	ctx.stringCache[owned] = owned
	return owned
}

// fieldBuffer returns the reusable record-split buffer, sized on first use
// to the header's column count (capped at the nine decoded columns).
func (ctx *DecodeContext) fieldBuffer(columnCount int) []string {
	n := columnCount
	if n > NumStandardFields+1 {
		n = NumStandardFields + 1
	}
	if len(ctx.parts) != n {
		ctx.parts = make([]string, n)
	}
	return ctx.parts
}

// genotypeBuffer returns the reusable genotype-split buffer, sized to the
// FORMAT column plus one slot per sample.
func (ctx *DecodeContext) genotypeBuffer(columnCount int) []string {
	n := columnCount - NumStandardFields
	if len(ctx.genotypeParts) != n {
		ctx.genotypeParts = make([]string, n)
	}
	return ctx.genotypeParts
}

func (ctx *DecodeContext) clearAlleleCache() {
	clear(ctx.alleleCache)
}
