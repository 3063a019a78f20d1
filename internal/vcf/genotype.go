package vcf

import "fmt"

// Genotype is one sample's call for one record: the ordered allele calls,
// the phasing flag, the typed reserved fields, and any remaining FORMAT
// attributes as opaque strings. Absent integer fields are -1.
type Genotype struct {
	SampleName string
	Alleles    []*Allele
	Phased     bool

	GQ int
	DP int
	AD []int
	PL []int

	// Filters is nil when no genotype-level filter was applied.
	Filters []string

	Attributes map[string]string
}

// HasGQ reports whether a genotype quality was present.
func (g *Genotype) HasGQ() bool { return g.GQ != -1 }

// HasDP reports whether a read depth was present.
func (g *Genotype) HasDP() bool { return g.DP != -1 }

// IsCalled reports whether at least one allele call is not the no-call.
func (g *Genotype) IsCalled() bool {
	for _, a := range g.Alleles {
		if !a.IsNoCall() {
			return true
		}
	}
	return false
}

// genotypeBuilder accumulates one sample's fields before validation.
type genotypeBuilder struct {
	sampleName string
	alleles    []*Allele
	phased     bool
	gq         int
	dp         int
	ad         []int
	pl         []int
	filters    []string
	attributes map[string]string
	maxAttrs   int
}

func newGenotypeBuilder(sampleName string) *genotypeBuilder {
	return &genotypeBuilder{sampleName: sampleName, gq: -1, dp: -1}
}

func (b *genotypeBuilder) attribute(key, value string) {
	if b.attributes == nil {
		b.attributes = make(map[string]string, b.maxAttrs)
	}
	b.attributes[key] = value
}

// make validates and assembles the genotype. A failure here is surfaced
// by the caller with contig:position context.
func (b *genotypeBuilder) make() (*Genotype, error) {
	if b.alleles == nil {
		b.alleles = []*Allele{}
	}
	if b.ad != nil && b.pl != nil && len(b.pl) < len(b.ad) {
		// a PL vector shorter than AD means the FORMAT data is internally
		// inconsistent for this sample
		return nil, fmt.Errorf("sample %s has %d PL values for %d allele depths", b.sampleName, len(b.pl), len(b.ad))
	}
	return &Genotype{
		SampleName: b.sampleName,
		Alleles:    b.alleles,
		Phased:     b.phased,
		GQ:         b.gq,
		DP:         b.dp,
		AD:         b.ad,
		PL:         b.pl,
		Filters:    b.filters,
		Attributes: b.attributes,
	}, nil
}
