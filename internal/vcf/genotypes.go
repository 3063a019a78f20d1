package vcf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// createGenotypes decodes the raw genotype block of one line into the
// per-sample genotype list. The block is the FORMAT keys field followed
// by one field per sample.
func (c *Codec) createGenotypes(ctx *DecodeContext, raw string, alleles []*Allele, contig string, pos, lineNum int) ([]*Genotype, error) {
	gtParts := ctx.genotypeBuffer(c.header.ColumnCount())
	nParts := splitInto(raw, gtParts, FieldSeparatorChar)
	if nParts != len(gtParts) {
		return nil, malformedAt(lineNum, fmt.Sprintf("there are %d genotypes while the header requires that %d genotypes be present for all records at %s:%d", nParts-1, len(gtParts)-1, contig, pos))
	}

	genotypeKeys := strings.Split(gtParts[0], string(GenotypeFieldSeparatorChar))
	if gtParts[0] == "" {
		genotypeKeys = nil
	}

	genotypes := make([]*Genotype, 0, nParts-1)
	samples := c.header.Samples()

	// GT strings repeat across samples; resolved allele lists are reused
	// within this line only
	ctx.clearAlleleCache()

	plIsSet := false
	for offset := 1; offset < nParts; offset++ {
		sampleName := samples[offset-1]
		values := strings.Split(gtParts[offset], string(GenotypeFieldSeparatorChar))
		values = c.transformer.decodeList(values)

		if len(values) > len(genotypeKeys) {
			return nil, malformedAt(lineNum, fmt.Sprintf("there are too many keys for the sample %s, keys = %s, values = %s", sampleName, gtParts[0], gtParts[offset]))
		}

		gb := newGenotypeBuilder(sampleName)
		gtLocation := -1

		if len(genotypeKeys) > 0 {
			gb.maxAttrs = len(genotypeKeys) - 1

			for i, gtKey := range genotypeKeys {
				missing := i >= len(values)

				switch {
				case gtKey == GenotypeKey:
					gtLocation = i
				case missing:
					// trailing omitted field: not present, no diagnostic
				case gtKey == GenotypeFilterKey:
					filters, err := c.filters.parseFilters(c, ctx, ctx.intern(values[i]))
					if err != nil {
						return nil, err
					}
					if len(filters) > 0 {
						gb.filters = filters
					}
				case values[i] == MissingValue:
					// explicit missing token: dropped without becoming an attribute
				case gtKey == GenotypeQualityKey:
					if values[i] == MissingGenotypeQualityV3 {
						gb.gq = -1
					} else {
						v, err := parseVCFFloat(values[i])
						if err != nil {
							return nil, malformedAt(lineNum, err.Error())
						}
						gb.gq = int(math.Round(v))
					}
				case gtKey == GenotypeAlleleDepths:
					gb.ad = decodeInts(values[i])
				case gtKey == GenotypePLKey:
					gb.pl = decodeInts(values[i])
					plIsSet = true
				case gtKey == GenotypeLikelihoodsKey:
					// a direct PL field wins; GL only populates PL when PL is absent
					if !plIsSet {
						gb.pl = plsFromGLField(values[i])
					}
				case gtKey == DepthKey:
					dp, err := strconv.Atoi(values[i])
					if err != nil {
						return nil, malformedAt(lineNum, values[i]+" is not a valid DP value")
					}
					gb.dp = dp
				default:
					gb.attribute(gtKey, values[i])
				}
			}
		}

		// the GT field is mandatory before 4.1 and must lead when present
		if !c.version.AtLeast(Version4_1) && gtLocation == -1 {
			return nil, malformedAt(lineNum, "unable to find the GT field for the record; the GT field is required before VCF4.1")
		}
		if gtLocation > 0 {
			return nil, malformedAt(lineNum, fmt.Sprintf("saw GT field at position %d, but it must be at the first position for genotypes when present", gtLocation))
		}

		if gtLocation != -1 {
			gtAlleles, err := parseGenotypeAlleles(values[gtLocation], alleles, ctx.alleleCache)
			if err != nil {
				return nil, err
			}
			gb.alleles = gtAlleles
			gb.phased = strings.IndexByte(values[gtLocation], PhasedChar) != -1
		}

		g, err := gb.make()
		if err != nil {
			return nil, &InternalCodecError{Message: fmt.Sprintf("%s, at position %s:%d", err, contig, pos)}
		}
		genotypes = append(genotypes, g)
	}

	return genotypes, nil
}

// parseGenotypeAlleles resolves a GT call string to allele objects,
// memoizing per distinct call string via the supplied cache. The returned
// slice is shared between cache hits and must not be modified.
func parseGenotypeAlleles(gt string, alleles []*Allele, cache map[string][]*Allele) ([]*Allele, error) {
	if cached, ok := cache[gt]; ok {
		return cached, nil
	}
	tokens := tokenizeCall(gt)
	gtAlleles := make([]*Allele, 0, len(tokens))
	for _, token := range tokens {
		a, err := oneAllele(token, alleles)
		if err != nil {
			return nil, err
		}
		gtAlleles = append(gtAlleles, a)
	}
	cache[gt] = gtAlleles
	return gtAlleles, nil
}

// tokenizeCall splits a GT call on the phasing separators.
func tokenizeCall(gt string) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(gt); i++ {
		if strings.IndexByte(PhasingTokens, gt[i]) != -1 {
			if i > start {
				tokens = append(tokens, gt[start:i])
			}
			start = i + 1
		}
	}
	if start < len(gt) {
		tokens = append(tokens, gt[start:])
	}
	return tokens
}

// oneAllele resolves one GT index token against the record's allele list.
// An out-of-range or unparsable index is an internal codec error: the
// record's own REF/ALT columns do not define it.
func oneAllele(index string, alleles []*Allele) (*Allele, error) {
	if index == EmptyAllele {
		return NoCall, nil
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return nil, &InternalCodecError{Message: "the following invalid GT allele index was encountered in the file: " + index}
	}
	if i < 0 || i >= len(alleles) {
		return nil, &InternalCodecError{Message: fmt.Sprintf("the allele with index %s is not defined in the REF/ALT columns in the record", index)}
	}
	return alleles[i], nil
}

// decodeInts parses a comma-separated integer vector. Any parse failure
// yields nil, which callers treat as "field absent" rather than an error.
func decodeInts(s string) []int {
	parts := strings.Split(s, string(InfoFieldArraySeparatorChar))
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		values[i] = v
	}
	return values
}

// plsFromGLField converts a GL field (log10 genotype likelihoods) to
// Phred-scaled PLs, shifted so the most likely genotype is 0. A parse
// failure yields nil, like decodeInts.
func plsFromGLField(s string) []int {
	parts := strings.Split(s, string(InfoFieldArraySeparatorChar))
	pls := make([]int, len(parts))
	min := math.MaxInt
	for i, p := range parts {
		gl, err := parseVCFFloat(p)
		if err != nil {
			return nil
		}
		pls[i] = int(math.Round(-10 * gl))
		if pls[i] < min {
			min = pls[i]
		}
	}
	for i := range pls {
		pls[i] -= min
	}
	return pls
}
