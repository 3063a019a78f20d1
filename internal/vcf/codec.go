// Package vcf decodes Variant Call Format text into typed records:
// header parsing with version normalization, line decoding with lazy
// per-sample genotype realization, and the positioned line sources the
// retrieval layer drives.
package vcf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Codec decodes data lines into Records. A codec carries the shared,
// otherwise-immutable header/version state and is safe to use from
// multiple workers as long as each worker supplies its own DecodeContext;
// the only shared mutable state is the atomic line counter.
type Codec struct {
	header      *Header
	version     Version
	transformer textTransformer
	filters     filterParser

	lineNo atomic.Int64

	logger *zap.Logger

	// doOnTheFlyModifications controls whether standard header fields are
	// repaired when a header is set.
	doOnTheFlyModifications bool

	// remappedSampleName, when set, replaces the declared sample name of
	// single-sample files.
	remappedSampleName string

	warnedNonFlagKey atomic.Bool
}

// NewCodec creates a codec with no header established.
func NewCodec() *Codec {
	return &Codec{
		logger:                  zap.NewNop(),
		transformer:             passThroughTransformer{},
		filters:                 filterParserV4{},
		doOnTheFlyModifications: true,
	}
}

// SetLogger installs a logger for codec diagnostics.
func (c *Codec) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Header returns the established header, which may be nil.
func (c *Codec) Header() *Header { return c.header }

// Version returns the established version.
func (c *Codec) Version() Version { return c.version }

// LineNumber returns the number of lines decoded so far.
func (c *Codec) LineNumber() int { return int(c.lineNo.Load()) }

// DisableOnTheFlyModifications turns off standard-field repair when
// headers are set, for raw record comparisons.
func (c *Codec) DisableOnTheFlyModifications() {
	c.doOnTheFlyModifications = false
}

// SetRemappedSampleName replaces the sample name declared by the header.
// Only single-sample files may be remapped.
func (c *Codec) SetRemappedSampleName(name string) {
	c.remappedSampleName = name
}

// SetHeader establishes a header on the codec. The version transition is
// validated, standard fields are repaired (unless disabled), and the
// transition is validated again after repair, since repair can change
// declared types. The established header (possibly repaired) is returned.
func (c *Codec) SetHeader(newHeader *Header) (*Header, error) {
	if newHeader == nil {
		return nil, fmt.Errorf("cannot set a nil header")
	}
	if err := ValidateVersionTransition(c.version, newHeader.Version()); err != nil {
		return nil, err
	}
	established := newHeader
	if c.doOnTheFlyModifications {
		established = newHeader.repairStandardFields()
		if err := ValidateVersionTransition(c.version, established.Version()); err != nil {
			return nil, err
		}
	}
	if c.remappedSampleName != "" {
		remapped, err := established.remapSample(c.remappedSampleName)
		if err != nil {
			return nil, err
		}
		established = remapped
	}
	c.header = established
	c.version = established.Version()
	c.transformer = transformerForVersion(c.version)
	c.filters = filterParserForVersion(c.version)
	return c.header, nil
}

// DecodeLine decodes one data line into a Record, incrementing the shared
// line counter. Header-marker lines yield (nil, nil). Grammar violations
// yield a *MalformedRecordError tagged with the line number.
func (c *Codec) DecodeLine(ctx *DecodeContext, line string, includeGenotypes bool) (*Record, error) {
	return c.decodeLine(ctx, line, includeGenotypes, int(c.lineNo.Add(1)))
}

func (c *Codec) decodeLine(ctx *DecodeContext, line string, includeGenotypes bool, lineNum int) (*Record, error) {
	if strings.HasPrefix(line, HeaderIndicator) {
		return nil, nil
	}
	if c.header == nil {
		return nil, fmt.Errorf("a header must be established before decoding records")
	}

	parts := ctx.fieldBuffer(c.header.ColumnCount())
	nParts := splitInto(line, parts, FieldSeparatorChar)

	wantParts := NumStandardFields
	if c.header.HasGenotypingData() {
		wantParts = NumStandardFields + 1
	}
	if nParts != wantParts {
		return nil, malformedAt(lineNum, fmt.Sprintf("there aren't enough columns for line %s (we expected %d tokens, and saw %d)", line, wantParts, nParts))
	}

	return c.parseLine(ctx, parts[:nParts], includeGenotypes, lineNum)
}

func (c *Codec) parseLine(ctx *DecodeContext, parts []string, includeGenotypes bool, lineNum int) (*Record, error) {
	contig := ctx.intern(parts[0])

	pos, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, malformedAt(lineNum, parts[1]+" is not a valid start position in the VCF format")
	}

	var id string
	switch {
	case parts[2] == "":
		return nil, malformedAt(lineNum, "the VCF specification requires a valid ID field")
	case parts[2] == EmptyIDField:
		id = ""
	default:
		id = parts[2]
	}

	ref := strings.ToUpper(parts[3])
	alts := parts[4]

	qual, err := parseQual(parts[5])
	if err != nil {
		return nil, malformedAt(lineNum, err.Error())
	}

	filters, err := c.filters.parseFilters(c, ctx, ctx.intern(parts[6]))
	if err != nil {
		return nil, err
	}

	attrs, err := c.parseInfo(parts[7], lineNum)
	if err != nil {
		return nil, err
	}

	stop := pos + len(ref) - 1
	if endValue, ok := attrs[EndKey]; ok {
		end, err := strconv.Atoi(fmt.Sprint(endValue))
		if err != nil {
			return nil, malformedAt(lineNum, "the END value in the INFO field is not valid")
		}
		stop = end
	}

	alleles, err := c.parseAlleles(ref, alts, lineNum)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Contig:          contig,
		Start:           pos,
		Stop:            stop,
		ID:              id,
		Alleles:         alleles,
		QualLog10PError: qual,
		Filters:         filters,
		Attributes:      attrs,
	}

	if c.header.HasGenotypingData() && includeGenotypes {
		raw := parts[NumStandardFields]
		parse := func(data string) ([]*Genotype, error) {
			return c.createGenotypes(ctx, data, alleles, contig, pos, lineNum)
		}

		if c.header.SamplesWereAlreadySorted() {
			rec.Genotypes = newLazyGenotypesContext(raw, c.header.NumSamples(), parse)
		} else {
			// resorting genotypes by sample name cannot be deferred safely
			gts, err := parse(raw)
			if err != nil {
				return nil, err
			}
			sort.Slice(gts, func(i, j int) bool { return gts[i].SampleName < gts[j].SampleName })
			rec.Genotypes = newRealizedGenotypesContext(gts)
		}
	}

	if err := validateRecord(rec); err != nil {
		return nil, malformedAt(lineNum, err.Error())
	}
	return rec, nil
}

// validateRecord checks assembly invariants that span multiple fields.
func validateRecord(r *Record) error {
	if r.Stop < r.Start {
		return fmt.Errorf("the stop position %d is before the start position %d", r.Stop, r.Start)
	}
	seen := make(map[string]bool, len(r.Alleles))
	for _, a := range r.Alleles {
		if seen[a.Bases] {
			return fmt.Errorf("duplicate allele added to record: %s", a.Bases)
		}
		seen[a.Bases] = true
	}
	return nil
}

// parseInfo decodes the semicolon-separated INFO field into an attribute
// map. Values pass through the version-dependent text transformer.
func (c *Codec) parseInfo(infoField string, lineNum int) (map[string]any, error) {
	attrs := make(map[string]any)

	if infoField == "" {
		return nil, malformedAt(lineNum, "the VCF specification requires a valid (non-zero length) INFO field")
	}
	if infoField == EmptyInfoField {
		return attrs, nil
	}
	if strings.ContainsAny(infoField, " \t") {
		return nil, malformedAt(lineNum, fmt.Sprintf("the VCF specification does not allow for whitespace in the INFO field, offending field value was %q", infoField))
	}

	for _, entry := range strings.Split(infoField, string(InfoFieldSeparatorChar)) {
		var key string
		var value any

		if eq := strings.IndexByte(entry, '='); eq != -1 {
			key = entry[:eq]
			valueString := entry[eq+1:]

			if strings.IndexByte(valueString, InfoFieldArraySeparatorChar) == -1 {
				decoded := c.transformer.decode(valueString)
				if decl := c.header.InfoDecl(key); decl != nil && decl.Type == Flag && decoded == "0" {
					// a flag given an explicit =0 is treated as absent
					continue
				}
				value = decoded
			} else {
				value = c.transformer.decodeList(strings.Split(valueString, string(InfoFieldArraySeparatorChar)))
			}
		} else {
			key = entry
			if decl := c.header.InfoDecl(key); decl != nil && decl.Type != Flag {
				if c.warnedNonFlagKey.CompareAndSwap(false, true) {
					c.logger.Warn("found INFO key without a value, but the header declares a non-flag type; this construct is only valid for Flag fields",
						zap.String("key", key),
						zap.String("declaredType", decl.Type.String()))
				}
				value = MissingValue
			} else {
				value = true
			}
		}

		// key=; parses as the canonical missing token, not an empty string
		if value == "" {
			value = MissingValue
		}

		attrs[key] = value
	}

	return attrs, nil
}

// parseQual maps the QUAL column to a log10 error probability. The "."
// missing token and the legacy VCF3 negative sentinel both yield
// NoQuality; anything else is Phred-scaled, so the stored value is the
// parsed value divided by -10.
func parseQual(qualString string) (float64, error) {
	if qualString == MissingValue {
		return NoQuality, nil
	}
	val, err := parseVCFFloat(qualString)
	if err != nil {
		return 0, err
	}
	if val < 0 && abs(val-MissingQualityV3) < EncodingEpsilon {
		return NoQuality, nil
	}
	return val / -10.0, nil
}

// parseVCFFloat parses a floating point value, accepting the infinity
// spellings the VCF grammar allows.
func parseVCFFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	trimmed := strings.TrimPrefix(s, "+")
	neg := strings.HasPrefix(trimmed, "-")
	trimmed = strings.TrimPrefix(trimmed, "-")
	switch strings.ToLower(trimmed) {
	case "inf", "infinity":
		if neg {
			return strconv.ParseFloat("-Inf", 64)
		}
		return strconv.ParseFloat("+Inf", 64)
	}
	return 0, fmt.Errorf("%s is not a valid floating point value in the VCF format", s)
}

// parseAlleles validates and builds the allele list: the reference at
// index 0, then each alternate. Alternates that resolve to no-call are
// excluded. The ALT column is split only when it actually contains a
// separator, to avoid the allocation on the common single-alt case.
func (c *Codec) parseAlleles(ref, alts string, lineNum int) ([]*Allele, error) {
	alleles := make([]*Allele, 0, 2) // records are almost always biallelic
	if err := c.checkAllele(ref, true, lineNum); err != nil {
		return nil, err
	}
	alleles = append(alleles, NewAllele(ref, true))

	if strings.IndexByte(alts, InfoFieldArraySeparatorChar) == -1 {
		var err error
		alleles, err = c.appendAltAllele(alleles, alts, lineNum)
		if err != nil {
			return nil, err
		}
	} else {
		for _, alt := range strings.Split(alts, string(InfoFieldArraySeparatorChar)) {
			var err error
			alleles, err = c.appendAltAllele(alleles, alt, lineNum)
			if err != nil {
				return nil, err
			}
		}
	}
	return alleles, nil
}

func (c *Codec) appendAltAllele(alleles []*Allele, alt string, lineNum int) ([]*Allele, error) {
	if err := c.checkAllele(alt, false, lineNum); err != nil {
		return nil, err
	}
	allele := NewAllele(alt, false)
	if !allele.IsNoCall() {
		alleles = append(alleles, allele)
	}
	return alleles, nil
}

// checkAllele applies the shared ref/alt allele grammar.
func (c *Codec) checkAllele(allele string, isRef bool, lineNum int) error {
	if allele == "" {
		return malformedAt(lineNum, badAlleleMessage(""))
	}

	if len(allele) > MaxAlleleSizeBeforeWarning {
		c.logger.Warn("allele length exceeds the warning threshold, likely resulting in degraded processing performance",
			zap.Int("length", len(allele)),
			zap.Int("threshold", MaxAlleleSizeBeforeWarning),
			zap.Int("line", lineNum))
	}

	if wouldBeSymbolic(allele) {
		if isRef {
			return malformedAt(lineNum, "symbolic alleles not allowed as reference allele: "+allele)
		}
		return nil
	}

	if allele[0] == DeletionAlleleV3 || allele[0] == InsertionAlleleV3 {
		return malformedAt(lineNum, "insertions/deletions are not supported when reading 3.x VCFs; convert the file to VCF4 first")
	}
	if allele != EmptyAllele && !acceptableBases(allele, isRef) {
		return malformedAt(lineNum, badAlleleMessage(allele))
	}
	if isRef && allele == EmptyAllele {
		return malformedAt(lineNum, "the reference allele cannot be missing")
	}
	return nil
}

func (c *Codec) malformed(message string) error {
	return malformedAt(int(c.lineNo.Load()), message)
}

func malformedAt(lineNum int, message string) error {
	return &MalformedRecordError{Line: lineNum, Message: message}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// splitInto splits s on sep into the supplied buffer and returns the
// token count. Once the final slot is reached the remainder of s,
// separators included, is stored there whole; the genotype block rides in
// the last slot this way.
func splitInto(s string, parts []string, sep byte) int {
	n := 0
	for n < len(parts)-1 {
		idx := strings.IndexByte(s, sep)
		if idx == -1 {
			break
		}
		parts[n] = s[:idx]
		s = s[idx+1:]
		n++
	}
	parts[n] = s
	return n + 1
}
