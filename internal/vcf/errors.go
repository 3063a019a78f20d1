package vcf

import "fmt"

// MalformedRecordError reports a grammar violation on a data line. Line is
// the value the shared line counter had reached when the failure was
// observed; for lazily realized genotypes this can trail the record's own
// line, so messages from that path carry contig:pos context as well.
type MalformedRecordError struct {
	Line    int
	Message string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at approximately line %d: %s", e.Line, e.Message)
}

// IncompatibleVersionError reports a header/version pairing that violates
// the version compatibility lattice.
type IncompatibleVersionError struct {
	From   Version
	To     Version
	Reason string
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("incompatible header version transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// InternalCodecError indicates an invariant violation inside the codec,
// such as a GT allele index not defined by the record's REF/ALT columns.
type InternalCodecError struct {
	Message string
}

func (e *InternalCodecError) Error() string {
	return "internal codec error: " + e.Message
}
