package vcf

import "strings"

// textTransformer rewrites attribute values read from a line. Before v4.3
// values are used verbatim; from v4.3 on, percent-encoded characters in
// values must be decoded on read.
type textTransformer interface {
	decode(s string) string
	decodeList(values []string) []string
}

func transformerForVersion(v Version) textTransformer {
	if v.AtLeast(Version4_3) {
		return percentTransformer{}
	}
	return passThroughTransformer{}
}

type passThroughTransformer struct{}

func (passThroughTransformer) decode(s string) string          { return s }
func (passThroughTransformer) decodeList(vs []string) []string { return vs }

type percentTransformer struct{}

func (percentTransformer) decode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (t percentTransformer) decodeList(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = t.decode(v)
	}
	return out
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
