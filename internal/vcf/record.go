package vcf

import "fmt"

// Record is one decoded variant line. Records are built once per line and
// not mutated after construction, except for in-place realization of the
// lazy genotype container.
type Record struct {
	Contig string
	Start  int // 1-based
	Stop   int // inclusive; END attribute overrides start+len(ref)-1

	ID string // "" when the line carried the missing token

	// Alleles holds the reference at index 0 followed by the alternates.
	Alleles []*Allele

	// QualLog10PError is the log10 error probability (QUAL / -10), or
	// NoQuality when the line carried a missing or legacy sentinel value.
	QualLog10PError float64

	// Filters is nil when the record is not filtered, empty when it
	// passes, and non-empty when filters were applied.
	Filters []string

	Attributes map[string]any

	Genotypes *GenotypesContext
}

// HasID reports whether the line carried an identifier.
func (r *Record) HasID() bool { return r.ID != "" }

// HasQual reports whether a quality value was present.
func (r *Record) HasQual() bool { return r.QualLog10PError != NoQuality }

// Ref returns the reference allele.
func (r *Record) Ref() *Allele { return r.Alleles[0] }

// Alt returns the alternate alleles.
func (r *Record) Alt() []*Allele { return r.Alleles[1:] }

// Attribute returns the INFO value for key, or nil.
func (r *Record) Attribute(key string) any { return r.Attributes[key] }

// HasAttribute reports whether the INFO field carried key.
func (r *Record) HasAttribute(key string) bool {
	_, ok := r.Attributes[key]
	return ok
}

// Overlaps reports whether the record's [Start, Stop] range intersects
// [start, end].
func (r *Record) Overlaps(start, end int) bool {
	return r.Start <= end && r.Stop >= start
}

func (r *Record) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start, r.Stop)
}

// genotypeParser realizes the per-sample genotypes from the raw genotype
// text of one line.
type genotypeParser func(raw string) ([]*Genotype, error)

// GenotypesContext defers genotype parsing until first access. It is
// either unrealized (raw text plus a bound parser) or realized (the
// genotype list); realization happens at most once and the result is
// cached in place. A context must be realized on the thread that owns the
// record's decode.
type GenotypesContext struct {
	realized    []*Genotype
	isRealized  bool
	raw         string
	parse       genotypeParser
	sampleCount int
}

// newLazyGenotypesContext wraps raw genotype text for deferred decoding.
func newLazyGenotypesContext(raw string, sampleCount int, parse genotypeParser) *GenotypesContext {
	return &GenotypesContext{raw: raw, sampleCount: sampleCount, parse: parse}
}

// newRealizedGenotypesContext wraps an already-decoded genotype list.
func newRealizedGenotypesContext(genotypes []*Genotype) *GenotypesContext {
	return &GenotypesContext{realized: genotypes, isRealized: true, sampleCount: len(genotypes)}
}

// Len returns the sample count without forcing realization.
func (g *GenotypesContext) Len() int { return g.sampleCount }

// IsRealized reports whether the genotypes have been decoded.
func (g *GenotypesContext) IsRealized() bool { return g.isRealized }

// Genotypes returns the per-sample genotypes, decoding the raw text on
// first access.
func (g *GenotypesContext) Genotypes() ([]*Genotype, error) {
	if !g.isRealized {
		decoded, err := g.parse(g.raw)
		if err != nil {
			return nil, err
		}
		g.realized = decoded
		g.isRealized = true
		g.raw = ""
		g.parse = nil
	}
	return g.realized, nil
}
