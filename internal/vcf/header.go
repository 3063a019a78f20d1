package vcf

import (
	"fmt"
	"sort"
	"strings"
)

// Header is the parsed metadata of a file: the version tag, the typed
// field declarations, and the declared sample names. A Header is immutable
// once established; replacing the header on a codec is constrained by the
// version lattice.
type Header struct {
	version Version

	lines   []*HeaderLine
	infos   map[string]*FieldDecl
	formats map[string]*FieldDecl
	contigs []string

	samples            []string
	sampleNameToOffset map[string]int
	samplesSorted      bool
}

// NewHeader assembles a header from parsed metadata lines and sample
// names.
func NewHeader(version Version, lines []*HeaderLine, samples []string) (*Header, error) {
	h := &Header{
		version:            version,
		lines:              lines,
		infos:              make(map[string]*FieldDecl),
		formats:            make(map[string]*FieldDecl),
		samples:            samples,
		sampleNameToOffset: make(map[string]int, len(samples)),
		samplesSorted:      samplesAlreadySorted(samples),
	}
	for _, line := range lines {
		switch line.Class {
		case "INFO":
			decl, err := parseFieldDecl(line)
			if err != nil {
				return nil, err
			}
			h.infos[decl.ID] = decl
		case "FORMAT":
			decl, err := parseFieldDecl(line)
			if err != nil {
				return nil, err
			}
			h.formats[decl.ID] = decl
		case "contig":
			h.contigs = append(h.contigs, line.ID)
		}
	}
	for i, s := range samples {
		h.sampleNameToOffset[s] = i
	}
	return h, nil
}

// Version returns the header's declared file format version.
func (h *Header) Version() Version { return h.version }

// Lines returns the metadata lines in file order. Callers must not modify
// the returned slice.
func (h *Header) Lines() []*HeaderLine { return h.lines }

// InfoDecl returns the declaration for an INFO key, or nil.
func (h *Header) InfoDecl(key string) *FieldDecl { return h.infos[key] }

// FormatDecl returns the declaration for a FORMAT key, or nil.
func (h *Header) FormatDecl(key string) *FieldDecl { return h.formats[key] }

// Contigs returns the contig IDs declared in the header, in order.
func (h *Header) Contigs() []string { return h.contigs }

// Samples returns the sample names in file order.
func (h *Header) Samples() []string { return h.samples }

// NumSamples returns the declared sample count.
func (h *Header) NumSamples() int { return len(h.samples) }

// HasGenotypingData reports whether any sample columns are declared.
func (h *Header) HasGenotypingData() bool { return len(h.samples) > 0 }

// ColumnCount returns the number of tab-separated columns a data line
// must have: the eight fixed fields, plus FORMAT and one per sample when
// genotyping data is present.
func (h *Header) ColumnCount() int {
	if !h.HasGenotypingData() {
		return NumStandardFields
	}
	return NumStandardFields + 1 + len(h.samples)
}

// SampleOffset returns the file-order column offset for a sample name.
func (h *Header) SampleOffset(name string) (int, bool) {
	off, ok := h.sampleNameToOffset[name]
	return off, ok
}

// SamplesWereAlreadySorted reports whether the declared sample order is
// already lexicographic. When it is not, genotype containers must be
// realized eagerly so they can be resorted.
func (h *Header) SamplesWereAlreadySorted() bool { return h.samplesSorted }

// SamplesInSortedOrder returns the sample names sorted lexicographically.
func (h *Header) SamplesInSortedOrder() []string {
	out := make([]string, len(h.samples))
	copy(out, h.samples)
	sort.Strings(out)
	return out
}

// remapSample replaces the single declared sample name. Remapping is
// supported for single-sample files only.
func (h *Header) remapSample(name string) (*Header, error) {
	if len(h.samples) != 1 {
		return nil, fmt.Errorf("cannot remap sample name to %s: remapping is only supported for single-sample files (%d samples declared)", name, len(h.samples))
	}
	out := *h
	out.samples = []string{name}
	out.sampleNameToOffset = map[string]int{name: 0}
	out.samplesSorted = true
	return &out, nil
}

// standardFormatDecls are the expected declarations for the reserved
// genotype fields; header repair rewrites declarations that disagree.
var standardFormatDecls = map[string]FieldDecl{
	GenotypeKey:          {ID: GenotypeKey, Type: String, Number: "1", Description: "Genotype"},
	GenotypeQualityKey:   {ID: GenotypeQualityKey, Type: Integer, Number: "1", Description: "Genotype Quality"},
	DepthKey:             {ID: DepthKey, Type: Integer, Number: "1", Description: "Approximate read depth"},
	GenotypeAlleleDepths: {ID: GenotypeAlleleDepths, Type: Integer, Number: "R", Description: "Allelic depths for the ref and alt alleles in the order listed"},
	GenotypePLKey:        {ID: GenotypePLKey, Type: Integer, Number: "G", Description: "Normalized, Phred-scaled likelihoods for genotypes as defined in the VCF specification"},
	GenotypeFilterKey:    {ID: GenotypeFilterKey, Type: String, Number: "1", Description: "Genotype-level filter"},
}

var standardInfoDecls = map[string]FieldDecl{
	EndKey: {ID: EndKey, Type: Integer, Number: "1", Description: "Stop position of the interval"},
	"DB":   {ID: "DB", Type: Flag, Number: "0", Description: "dbSNP Membership"},
}

// repairStandardFields returns a header whose reserved INFO and FORMAT
// declarations match the standard definitions, rewriting any that
// disagree. Repair can change declared types, so version-transition
// validation must run again on the result.
func (h *Header) repairStandardFields() *Header {
	repaired := *h
	repaired.infos = make(map[string]*FieldDecl, len(h.infos))
	repaired.formats = make(map[string]*FieldDecl, len(h.formats))
	for id, decl := range h.infos {
		if std, ok := standardInfoDecls[id]; ok && (decl.Type != std.Type || decl.Number != std.Number) {
			fixed := std
			repaired.infos[id] = &fixed
			continue
		}
		repaired.infos[id] = decl
	}
	for id, decl := range h.formats {
		if std, ok := standardFormatDecls[id]; ok && (decl.Type != std.Type || decl.Number != std.Number) {
			fixed := std
			repaired.formats[id] = &fixed
			continue
		}
		repaired.formats[id] = decl
	}
	return &repaired
}

// ParseHeaderLines builds a header from the raw ## and # lines of a file.
// The version is taken from the leading fileformat line; the final line
// must be the # column line.
func ParseHeaderLines(headerStrings []string) (*Header, error) {
	if len(headerStrings) == 0 {
		return nil, fmt.Errorf("no header lines present")
	}
	version, err := versionFromFirstLine(headerStrings[0])
	if err != nil {
		return nil, err
	}

	var (
		lines   []*HeaderLine
		samples []string
		sawCols bool
	)
	for _, str := range headerStrings {
		if strings.HasPrefix(str, MetadataIndicator) {
			line, err := parseHeaderLine(str, version)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
			continue
		}
		if !strings.HasPrefix(str, HeaderIndicator) {
			return nil, fmt.Errorf("unexpected non-header line while parsing the header: %s", str)
		}
		samples, err = parseColumnLine(str)
		if err != nil {
			return nil, err
		}
		sawCols = true
	}
	if !sawCols {
		return nil, fmt.Errorf("the header has no #CHROM column line")
	}
	return NewHeader(version, lines, samples)
}

func versionFromFirstLine(line string) (Version, error) {
	if !strings.HasPrefix(line, MetadataIndicator) {
		return VersionUnknown, fmt.Errorf("the first header line must declare the file format, saw: %s", line)
	}
	eq := strings.IndexByte(line, '=')
	if eq == -1 {
		return VersionUnknown, fmt.Errorf("the first header line must declare the file format, saw: %s", line)
	}
	key := line[len(MetadataIndicator):eq]
	if key != fileFormatKey && key != fileFormatKeyV3 {
		return VersionUnknown, fmt.Errorf("the first header line must be a %s line, saw key %q", fileFormatKey, key)
	}
	return ParseVersion(line[eq+1:])
}
