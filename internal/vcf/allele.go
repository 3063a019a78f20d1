package vcf

import "strings"

// Allele is one reference or alternate allele from a record. Alleles are
// immutable after construction; the no-call allele is shared.
type Allele struct {
	Bases    string
	Ref      bool
	Symbolic bool
	noCall   bool
}

// NoCall is the shared "." allele returned for uncalled genotype slots.
var NoCall = &Allele{Bases: EmptyAllele, noCall: true}

// NewAllele builds an allele from validated text.
func NewAllele(bases string, isRef bool) *Allele {
	if bases == EmptyAllele {
		return NoCall
	}
	return &Allele{
		Bases:    bases,
		Ref:      isRef,
		Symbolic: wouldBeSymbolic(bases),
	}
}

// IsNoCall reports whether this is the uncalled allele.
func (a *Allele) IsNoCall() bool { return a.noCall }

func (a *Allele) String() string {
	if a.noCall {
		return EmptyAllele
	}
	if a.Ref {
		return a.Bases + "*"
	}
	return a.Bases
}

// wouldBeSymbolic reports whether the text uses symbolic (<ID>) or
// breakend ([, ], leading/trailing '.') notation.
func wouldBeSymbolic(bases string) bool {
	if len(bases) <= 1 {
		return false
	}
	if bases[0] == '<' && bases[len(bases)-1] == '>' {
		return true
	}
	if strings.ContainsAny(bases, "[]") {
		return true
	}
	return bases[0] == '.' || bases[len(bases)-1] == '.'
}

// acceptableBases reports whether every character is a legal base for the
// allele's role. The spanning-deletion marker '*' is legal only as a
// complete alternate allele.
func acceptableBases(bases string, isRef bool) bool {
	if bases == "*" {
		return !isRef
	}
	for i := 0; i < len(bases); i++ {
		switch bases[i] {
		case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		case '.':
			// single "." is the no-call allele, handled by the caller
			if len(bases) != 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func badAlleleMessage(allele string) string {
	if allele == "" {
		return "empty alleles are not permitted in VCF records"
	}
	if strings.ContainsAny(allele, "[]:.") {
		return "complex rearrangements with breakends are not supported"
	}
	return "unparsable record with allele " + allele
}
