package vcf

import (
	"fmt"
	"sort"
	"strings"
)

// Structural header-line prefixes.
const (
	MetadataIndicator = "##"
	HeaderIndicator   = "#"

	infoHeaderStart     = "##INFO="
	filterHeaderStart   = "##FILTER="
	formatHeaderStart   = "##FORMAT="
	contigHeaderStart   = "##contig="
	altHeaderStart      = "##ALT="
	pedigreeHeaderStart = "##PEDIGREE="
	metaHeaderStart     = "##META="
	sampleHeaderStart   = "##SAMPLE="
	fileFormatKey       = "fileformat"
	fileFormatKeyV3     = "format"
)

// headerColumns are the fixed column names required on the final # line.
var headerColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// HeaderLine is one ## metadata line. Structured lines (##INFO=<...>)
// carry an ID and attribute map; plain key=value lines carry only Value.
type HeaderLine struct {
	Class string // "INFO", "FILTER", "FORMAT", "contig", "ALT", "PEDIGREE", "META", "SAMPLE", or the raw key
	ID    string
	Value string
	Attrs map[string]string
}

// FieldDecl is the typed declaration of an INFO or FORMAT field.
type FieldDecl struct {
	ID          string
	Type        FieldType
	Number      string // count descriptor: an integer, "A", "R", "G" or "."
	Description string
}

// parseStructuredLine parses the <ID=...,key=value,...> body of a
// structured header line. Quoted values may contain commas and escaped
// quotes.
func parseStructuredLine(class, body string) (*HeaderLine, error) {
	if !strings.HasPrefix(body, "<") || !strings.HasSuffix(body, ">") {
		return nil, fmt.Errorf("%s header line is not enclosed in angle brackets: %s", class, body)
	}
	attrs := make(map[string]string)
	inner := body[1 : len(body)-1]
	for len(inner) > 0 {
		eq := strings.IndexByte(inner, '=')
		if eq == -1 {
			return nil, fmt.Errorf("%s header line has a field with no value: %s", class, inner)
		}
		key := inner[:eq]
		inner = inner[eq+1:]
		var value string
		if strings.HasPrefix(inner, `"`) {
			end := 1
			for end < len(inner) {
				if inner[end] == '\\' {
					end += 2
					continue
				}
				if inner[end] == '"' {
					break
				}
				end++
			}
			if end >= len(inner) {
				return nil, fmt.Errorf("%s header line has an unterminated quoted value", class)
			}
			value = strings.ReplaceAll(inner[1:end], `\"`, `"`)
			inner = inner[end+1:]
			inner = strings.TrimPrefix(inner, ",")
		} else if comma := strings.IndexByte(inner, ','); comma != -1 {
			value = inner[:comma]
			inner = inner[comma+1:]
		} else {
			value = inner
			inner = ""
		}
		attrs[key] = value
	}
	id, ok := attrs["ID"]
	if !ok {
		return nil, fmt.Errorf("%s header line is missing an ID field: %s", class, body)
	}
	return &HeaderLine{Class: class, ID: id, Attrs: attrs}, nil
}

// parseFieldDecl builds a typed field declaration from a structured
// INFO/FORMAT line.
func parseFieldDecl(line *HeaderLine) (*FieldDecl, error) {
	typeStr, ok := line.Attrs["Type"]
	if !ok {
		return nil, fmt.Errorf("%s field %s is missing a Type", line.Class, line.ID)
	}
	ft := ParseFieldType(typeStr)
	if ft == InvalidFieldType {
		return nil, fmt.Errorf("%s field %s has unknown type %q", line.Class, line.ID, typeStr)
	}
	return &FieldDecl{
		ID:          line.ID,
		Type:        ft,
		Number:      line.Attrs["Number"],
		Description: line.Attrs["Description"],
	}, nil
}

// parseHeaderLine maps one ## line to a typed header line according to its
// prefix. PEDIGREE lines are only modeled as structured lines from v4.3.
func parseHeaderLine(line string, version Version) (*HeaderLine, error) {
	switch {
	case strings.HasPrefix(line, infoHeaderStart):
		return parseStructuredLine("INFO", line[len(infoHeaderStart):])
	case strings.HasPrefix(line, filterHeaderStart):
		return parseStructuredLine("FILTER", line[len(filterHeaderStart):])
	case strings.HasPrefix(line, formatHeaderStart):
		return parseStructuredLine("FORMAT", line[len(formatHeaderStart):])
	case strings.HasPrefix(line, contigHeaderStart):
		return parseStructuredLine("contig", line[len(contigHeaderStart):])
	case strings.HasPrefix(line, altHeaderStart):
		return parseStructuredLine("ALT", line[len(altHeaderStart):])
	case strings.HasPrefix(line, pedigreeHeaderStart) && version.AtLeast(Version4_3):
		return parseStructuredLine("PEDIGREE", line[len(pedigreeHeaderStart):])
	case strings.HasPrefix(line, metaHeaderStart):
		return parseStructuredLine("META", line[len(metaHeaderStart):])
	case strings.HasPrefix(line, sampleHeaderStart):
		return parseStructuredLine("SAMPLE", line[len(sampleHeaderStart):])
	default:
		if eq := strings.IndexByte(line, '='); eq != -1 {
			return &HeaderLine{Class: line[len(MetadataIndicator):eq], Value: line[eq+1:]}, nil
		}
		return nil, fmt.Errorf("metadata line has no key=value structure: %s", line)
	}
}

// parseColumnLine validates the final # line and returns the declared
// sample names, in file order.
func parseColumnLine(line string) ([]string, error) {
	fields := strings.Split(line[len(HeaderIndicator):], FieldSeparator)
	if len(fields) < len(headerColumns) {
		return nil, fmt.Errorf("not enough columns present in the header line: %s", line)
	}
	for i, want := range headerColumns {
		if fields[i] != want {
			return nil, fmt.Errorf("expected column name %q but saw %q", want, fields[i])
		}
	}
	rest := fields[len(headerColumns):]
	if len(rest) == 0 {
		return nil, nil
	}
	if rest[0] != "FORMAT" {
		return nil, fmt.Errorf("expected column name \"FORMAT\" but saw %q", rest[0])
	}
	samples := rest[1:]
	if len(samples) == 0 {
		return nil, fmt.Errorf("the FORMAT column was provided but there is no sample data")
	}
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if seen[s] {
			return nil, fmt.Errorf("duplicate sample name %q in the header line", s)
		}
		seen[s] = true
	}
	return samples, nil
}

func samplesAlreadySorted(samples []string) bool {
	return sort.StringsAreSorted(samples)
}
