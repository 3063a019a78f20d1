package vcf

import "fmt"

// Version identifies the file format version declared by a header.
type Version int

// Supported header versions, oldest first.
const (
	VersionUnknown Version = iota
	Version3_2
	Version3_3
	Version4_0
	Version4_1
	Version4_2
	Version4_3
)

var versionStrings = map[Version]string{
	Version3_2: "VCFv3.2",
	Version3_3: "VCFv3.3",
	Version4_0: "VCFv4.0",
	Version4_1: "VCFv4.1",
	Version4_2: "VCFv4.2",
	Version4_3: "VCFv4.3",
}

func (v Version) String() string {
	if s, ok := versionStrings[v]; ok {
		return s
	}
	return "unknown"
}

// ParseVersion resolves a ##fileformat value to a Version.
func ParseVersion(s string) (Version, error) {
	for v, str := range versionStrings {
		if s == str {
			return v, nil
		}
	}
	// VCF 3.x headers used "format" rather than "fileformat".
	switch s {
	case "VCRv3.2":
		return Version3_2, nil
	case "VCRv3.3":
		return Version3_3, nil
	}
	return VersionUnknown, fmt.Errorf("unknown file format version %q", s)
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool {
	return v >= other
}

// ValidateVersionTransition enforces the version compatibility lattice:
// anything below 4.2 may be normalized up to 4.2 but never directly to
// 4.3, and a header established at 4.3 is frozen there.
func ValidateVersionTransition(current, target Version) error {
	if current == VersionUnknown {
		return nil
	}
	if current == Version4_3 && target != Version4_3 {
		return &IncompatibleVersionError{From: current, To: target,
			Reason: "a v4.3 header cannot be down-converted"}
	}
	if target == Version4_3 && current != Version4_3 {
		return &IncompatibleVersionError{From: current, To: target,
			Reason: "only a v4.3 header may be set on a v4.3 codec"}
	}
	return nil
}
