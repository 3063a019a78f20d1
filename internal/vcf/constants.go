package vcf

// Field and token constants from the VCF text grammar.
const (
	FieldSeparator    = "\t"
	FieldSeparatorChar byte = '\t'

	InfoFieldSeparatorChar      byte = ';'
	InfoFieldArraySeparatorChar byte = ','
	GenotypeFieldSeparatorChar  byte = ':'

	// MissingValue is the canonical "." missing token used by VCF 4.x.
	MissingValue = "."

	EmptyIDField   = "."
	EmptyInfoField = "."
	EmptyAllele    = "."

	PassesFiltersV4 = "PASS"
	PassesFiltersV3 = "0"
	Unfiltered      = "."

	// Phasing separators recognized inside a GT call. Phased is true only
	// when the '|' separator appears.
	PhasingTokens = "/|\\"
	PhasedChar    = '|'

	// Legacy VCF3 single-character indel markers, rejected on sight.
	DeletionAlleleV3  = 'D'
	InsertionAlleleV3 = 'I'

	// Standard genotype FORMAT keys that receive typed handling.
	GenotypeKey            = "GT"
	GenotypeFilterKey      = "FT"
	GenotypeQualityKey     = "GQ"
	DepthKey               = "DP"
	GenotypeAlleleDepths   = "AD"
	GenotypePLKey          = "PL"
	GenotypeLikelihoodsKey = "GL"

	EndKey = "END"

	// MissingQualityV3 is the VCF3-era sentinel for an absent QUAL; it is
	// matched within EncodingEpsilon of the parsed value.
	MissingQualityV3        = -1.0
	MissingGenotypeQualityV3 = "-1"
	EncodingEpsilon         = 0.0001
)

// NumStandardFields is the count of fixed columns before FORMAT; INFO is
// the 8th.
const NumStandardFields = 8

// MaxAlleleSizeBeforeWarning is the allele length above which the codec
// logs a performance warning. Alleles this large are legal but slow.
const MaxAlleleSizeBeforeWarning = 1 << 20

// Magic is the leading bytes a VCF must start with to be recognized.
const Magic = "##fileformat=VCF"

// NoQuality marks an unknown log10 error probability.
const NoQuality = 1.0

// FieldType enumerates the declared types of INFO and FORMAT fields.
type FieldType int

const (
	InvalidFieldType FieldType = iota
	Flag
	Integer
	Float
	Character
	String
)

func (t FieldType) String() string {
	switch t {
	case Flag:
		return "Flag"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Character:
		return "Character"
	case String:
		return "String"
	default:
		return "Invalid"
	}
}

// ParseFieldType maps a header Type= token to a FieldType.
func ParseFieldType(s string) FieldType {
	switch s {
	case "Flag":
		return Flag
	case "Integer":
		return Integer
	case "Float":
		return Float
	case "Character":
		return Character
	case "String":
		return String
	default:
		return InvalidFieldType
	}
}
