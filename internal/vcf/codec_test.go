package vcf

import (
	"errors"
	"strings"
	"testing"
)

func testHeaderLines(samples ...string) []string {
	lines := []string{
		"##fileformat=VCFv4.2",
		"##INFO=<ID=DB,Number=0,Type=Flag,Description=\"dbSNP Membership\">",
		"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total Depth\">",
		"##INFO=<ID=AF,Number=A,Type=Float,Description=\"Allele Frequency\">",
		"##INFO=<ID=END,Number=1,Type=Integer,Description=\"Stop position of the interval\">",
		"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">",
		"##FORMAT=<ID=GQ,Number=1,Type=Integer,Description=\"Genotype Quality\">",
		"##FORMAT=<ID=DP,Number=1,Type=Integer,Description=\"Read Depth\">",
		"##FORMAT=<ID=AD,Number=R,Type=Integer,Description=\"Allelic Depths\">",
		"##FORMAT=<ID=PL,Number=G,Type=Integer,Description=\"Phred-scaled Likelihoods\">",
		"##FORMAT=<ID=GL,Number=G,Type=Float,Description=\"Genotype Likelihoods\">",
		"##FILTER=<ID=q10,Description=\"Quality below 10\">",
		"##contig=<ID=20,length=63025520>",
	}
	cols := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"
	if len(samples) > 0 {
		cols += "\tFORMAT\t" + strings.Join(samples, "\t")
	}
	return append(lines, cols)
}

func newTestCodec(t *testing.T, samples ...string) *Codec {
	t.Helper()
	header, err := ParseHeaderLines(testHeaderLines(samples...))
	if err != nil {
		t.Fatalf("ParseHeaderLines: %v", err)
	}
	c := NewCodec()
	if _, err := c.SetHeader(header); err != nil {
		t.Fatalf("SetHeader: %v", err)
	}
	return c
}

func decodeOne(t *testing.T, c *Codec, line string) *Record {
	t.Helper()
	rec, err := c.DecodeLine(NewDecodeContext(), line, true)
	if err != nil {
		t.Fatalf("DecodeLine(%q): %v", line, err)
	}
	if rec == nil {
		t.Fatalf("DecodeLine(%q): unexpected nil record", line)
	}
	return rec
}

func TestDecodeBasicRecord(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t14370\trs6054257\tG\tA\t29\tPASS\tDP=14")

	if rec.Contig != "20" {
		t.Errorf("Contig = %q, want 20", rec.Contig)
	}
	if rec.Start != 14370 {
		t.Errorf("Start = %d, want 14370", rec.Start)
	}
	if rec.Stop != 14370 {
		t.Errorf("Stop = %d, want 14370 (start + len(ref) - 1)", rec.Stop)
	}
	if rec.ID != "rs6054257" {
		t.Errorf("ID = %q, want rs6054257", rec.ID)
	}
	if rec.Ref().Bases != "G" {
		t.Errorf("Ref = %q, want G", rec.Ref().Bases)
	}
	if len(rec.Alt()) != 1 || rec.Alt()[0].Bases != "A" {
		t.Errorf("Alt = %v, want [A]", rec.Alt())
	}
	if len(rec.Filters) != 0 || rec.Filters == nil {
		t.Errorf("Filters = %v, want empty (PASS)", rec.Filters)
	}
	if got := rec.Attribute("DP"); got != "14" {
		t.Errorf("DP attribute = %v, want 14", got)
	}
}

func TestDecodeHeaderLineReturnsNil(t *testing.T) {
	c := newTestCodec(t)
	rec, err := c.DecodeLine(NewDecodeContext(), "#comment line", true)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if rec != nil {
		t.Error("expected nil record for header-marker line")
	}
}

func TestDecodeRefUppercased(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tacgt\tA\t.\t.\t.")
	if rec.Ref().Bases != "ACGT" {
		t.Errorf("Ref = %q, want ACGT", rec.Ref().Bases)
	}
	if rec.Stop != 103 {
		t.Errorf("Stop = %d, want 103", rec.Stop)
	}
}

func TestDecodeMissingID(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\t.")
	if rec.HasID() {
		t.Errorf("ID = %q, want none", rec.ID)
	}
}

func TestDecodeEmptyIDRejected(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t\tG\tA\t.\t.\t.", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestDecodeWrongColumnCount(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\t.\t.", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected 8") {
		t.Errorf("error should name the expected column count: %v", err)
	}
}

func TestDecodeBadPosition(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\tnotanumber\t.\tG\tA\t.\t.\t.", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestQualParsing(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		qual string
		want float64
	}{
		{".", NoQuality},   // missing token
		{"-1", NoQuality},  // legacy VCF3 sentinel
		{"-1.0", NoQuality},
		{"30", -3.0},       // Phred 30 -> log10 error probability -3
		{"10", -1.0},
	}
	for _, tt := range tests {
		rec := decodeOne(t, c, "20\t100\t.\tG\tA\t"+tt.qual+"\t.\t.")
		if rec.QualLog10PError != tt.want {
			t.Errorf("QUAL %q: got %v, want %v", tt.qual, rec.QualLog10PError, tt.want)
		}
	}
}

func TestQualUnparsable(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\tabc\t.\t.", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestFilterUnfiltered(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\t.")
	if rec.Filters != nil {
		t.Errorf("Filters = %v, want nil (not filtered)", rec.Filters)
	}
}

func TestFilterNames(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\tq10;s50\t.")
	if len(rec.Filters) != 2 || rec.Filters[0] != "q10" || rec.Filters[1] != "s50" {
		t.Errorf("Filters = %v, want [q10 s50]", rec.Filters)
	}
}

func TestFilterZeroRejectedInV4(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\t.\t0\t.", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestInfoFlagHandling(t *testing.T) {
	c := newTestCodec(t)

	// bare flag key is present
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\tDB")
	if got := rec.Attribute("DB"); got != true {
		t.Errorf("bare DB = %v, want true", got)
	}

	// flag with explicit =0 is absent
	rec = decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\tDB=0;DP=5")
	if rec.HasAttribute("DB") {
		t.Error("DB=0 should be absent from attributes")
	}
	if !rec.HasAttribute("DP") {
		t.Error("DP should survive alongside a suppressed flag")
	}
}

func TestInfoKeyEqualsEmptyIsMissing(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\tDP=")
	if got := rec.Attribute("DP"); got != MissingValue {
		t.Errorf("DP= should yield the missing token, got %v", got)
	}
}

func TestInfoBareNonFlagKeyIsMissing(t *testing.T) {
	c := newTestCodec(t)
	// DP is declared Integer; a bare DP must not become flag-true
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\tDP")
	if got := rec.Attribute("DP"); got != MissingValue {
		t.Errorf("bare non-flag DP = %v, want missing token", got)
	}
}

func TestInfoMultiValue(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA,T\t.\t.\tAF=0.5,0.25")
	list, ok := rec.Attribute("AF").([]string)
	if !ok || len(list) != 2 || list[0] != "0.5" || list[1] != "0.25" {
		t.Errorf("AF = %v, want [0.5 0.25]", rec.Attribute("AF"))
	}
}

func TestInfoEmptyRejected(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\t.\t.\t", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestInfoWhitespaceRejected(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\t.\t.\tDP=1 4", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestEndAttributeOverridesStop(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\t<DEL>\t.\t.\tEND=300")
	if rec.Stop != 300 {
		t.Errorf("Stop = %d, want 300 from END", rec.Stop)
	}
}

func TestEndAttributeInvalid(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\t<DEL>\t.\t.\tEND=abc", true)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestMultiAltAlleles(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA,T\t.\t.\t.")
	if len(rec.Alleles) != 3 {
		t.Fatalf("allele count = %d, want 3", len(rec.Alleles))
	}
	if !rec.Alleles[0].Ref {
		t.Error("allele 0 must be the reference")
	}
}

func TestNoCallAltExcluded(t *testing.T) {
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\t.\t.\t.\tDP=1")
	if len(rec.Alleles) != 1 {
		t.Errorf("allele count = %d, want 1 (no-call alt dropped)", len(rec.Alleles))
	}
}

func TestLineNumbersIncrease(t *testing.T) {
	c := newTestCodec(t)
	ctx := NewDecodeContext()
	for i := 0; i < 3; i++ {
		if _, err := c.DecodeLine(ctx, "20\t100\t.\tG\tA\t.\t.\t.", true); err != nil {
			t.Fatal(err)
		}
	}
	if c.LineNumber() != 3 {
		t.Errorf("LineNumber = %d, want 3", c.LineNumber())
	}
}

func TestVersionTransitions(t *testing.T) {
	// below 4.2 may be promoted to 4.2
	c := NewCodec()
	h40, err := ParseHeaderLines([]string{"##fileformat=VCFv4.0", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetHeader(h40); err != nil {
		t.Fatalf("setting v4.0 header: %v", err)
	}
	h42, err := ParseHeaderLines([]string{"##fileformat=VCFv4.2", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetHeader(h42); err != nil {
		t.Errorf("promoting v4.0 -> v4.2 should be allowed: %v", err)
	}

	// promoting to 4.3 from 4.2 is rejected
	h43, err := ParseHeaderLines([]string{"##fileformat=VCFv4.3", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.SetHeader(h43)
	var incompatible *IncompatibleVersionError
	if !errors.As(err, &incompatible) {
		t.Errorf("expected IncompatibleVersionError promoting to v4.3, got %v", err)
	}

	// a fresh codec at 4.3 is frozen there
	c43 := NewCodec()
	if _, err := c43.SetHeader(h43); err != nil {
		t.Fatalf("setting v4.3 header on a fresh codec: %v", err)
	}
	_, err = c43.SetHeader(h42)
	if !errors.As(err, &incompatible) {
		t.Errorf("expected IncompatibleVersionError demoting from v4.3, got %v", err)
	}
}

func TestPercentDecodingByVersion(t *testing.T) {
	// v4.2: verbatim
	c := newTestCodec(t)
	rec := decodeOne(t, c, "20\t100\t.\tG\tA\t.\t.\tDP=a%3Ab")
	if got := rec.Attribute("DP"); got != "a%3Ab" {
		t.Errorf("v4.2 value = %v, want verbatim a%%3Ab", got)
	}

	// v4.3: percent-decoded
	c43 := NewCodec()
	lines := []string{
		"##fileformat=VCFv4.3",
		"##INFO=<ID=NOTE,Number=1,Type=String,Description=\"free text\">",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	}
	h, err := ParseHeaderLines(lines)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c43.SetHeader(h); err != nil {
		t.Fatal(err)
	}
	rec, err = c43.DecodeLine(NewDecodeContext(), "20\t100\t.\tG\tA\t.\t.\tNOTE=a%3Ab", true)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Attribute("NOTE"); got != "a:b" {
		t.Errorf("v4.3 value = %v, want a:b", got)
	}
}

func TestContigInterning(t *testing.T) {
	c := newTestCodec(t)
	ctx := NewDecodeContext()
	r1, err := c.DecodeLine(ctx, "20\t100\t.\tG\tA\t.\t.\t.", true)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := c.DecodeLine(ctx, "20\t200\t.\tG\tA\t.\t.\t.", true)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Contig != r2.Contig {
		t.Error("interned contigs should be equal")
	}
}
