package vcf

import (
	"errors"
	"strings"
	"testing"
)

func realize(t *testing.T, rec *Record) []*Genotype {
	t.Helper()
	if rec.Genotypes == nil {
		t.Fatal("record has no genotype container")
	}
	gts, err := rec.Genotypes.Genotypes()
	if err != nil {
		t.Fatalf("realizing genotypes: %v", err)
	}
	return gts
}

func TestGenotypeCalls(t *testing.T) {
	c := newTestCodec(t, "NA00001", "NA00002", "NA00003")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t29\tPASS\tDP=14\tGT\t0/1\t1|1\t./.")
	gts := realize(t, rec)
	if len(gts) != 3 {
		t.Fatalf("genotype count = %d, want 3", len(gts))
	}

	het := gts[0]
	if het.Phased {
		t.Error("0/1 must be unphased")
	}
	if len(het.Alleles) != 2 || het.Alleles[0].Bases != "G" || het.Alleles[1].Bases != "A" {
		t.Errorf("0/1 alleles = %v", het.Alleles)
	}

	hom := gts[1]
	if !hom.Phased {
		t.Error("1|1 must be phased")
	}
	if len(hom.Alleles) != 2 || hom.Alleles[0].Bases != "A" || hom.Alleles[1].Bases != "A" {
		t.Errorf("1|1 alleles = %v", hom.Alleles)
	}

	nocall := gts[2]
	if nocall.IsCalled() {
		t.Error("./. must be uncalled")
	}
	if len(nocall.Alleles) != 2 || !nocall.Alleles[0].IsNoCall() {
		t.Errorf("./. alleles = %v", nocall.Alleles)
	}
}

func TestGenotypeTypedFields(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t29\tPASS\tDP=14\tGT:GQ:DP:AD:PL\t0/1:48:8:4,4:35,0,31")
	g := realize(t, rec)[0]

	if g.GQ != 48 {
		t.Errorf("GQ = %d, want 48", g.GQ)
	}
	if g.DP != 8 {
		t.Errorf("DP = %d, want 8", g.DP)
	}
	if len(g.AD) != 2 || g.AD[0] != 4 || g.AD[1] != 4 {
		t.Errorf("AD = %v, want [4 4]", g.AD)
	}
	if len(g.PL) != 3 || g.PL[0] != 35 || g.PL[1] != 0 || g.PL[2] != 31 {
		t.Errorf("PL = %v, want [35 0 31]", g.PL)
	}
}

func TestGenotypeQualityMissingSentinel(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:GQ\t0/1:-1")
	g := realize(t, rec)[0]
	if g.HasGQ() {
		t.Errorf("GQ = %d, want absent for the legacy -1 sentinel", g.GQ)
	}
}

func TestGenotypeQualityFloatRounded(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:GQ\t0/1:47.6")
	g := realize(t, rec)[0]
	if g.GQ != 48 {
		t.Errorf("GQ = %d, want 48 (rounded)", g.GQ)
	}
}

func TestGenotypeMissingValuesDropped(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:GQ:DP\t0/1:.:.")
	g := realize(t, rec)[0]
	if g.HasGQ() || g.HasDP() {
		t.Errorf("explicit missing tokens must leave fields absent, GQ=%d DP=%d", g.GQ, g.DP)
	}
}

func TestGenotypeTrailingFieldsOmitted(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:GQ:DP\t0/1:48")
	g := realize(t, rec)[0]
	if g.GQ != 48 {
		t.Errorf("GQ = %d, want 48", g.GQ)
	}
	if g.HasDP() {
		t.Errorf("omitted trailing DP must be absent, got %d", g.DP)
	}
}

func TestGenotypeUnparsableVectorAbsent(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:AD\t0/1:4,x")
	g := realize(t, rec)[0]
	if g.AD != nil {
		t.Errorf("unparsable AD must be absent, got %v", g.AD)
	}
}

func TestPLWinsOverGL(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:PL:GL\t0/1:35,0,31:-10,-1,-20")
	g := realize(t, rec)[0]
	if len(g.PL) != 3 || g.PL[0] != 35 {
		t.Errorf("PL = %v, want the direct PL field to win over GL", g.PL)
	}
}

func TestGLConvertedToPL(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:GL\t0/1:-3.5,0,-3.1")
	g := realize(t, rec)[0]
	// -10*gl rounded, shifted so the minimum is zero
	if len(g.PL) != 3 || g.PL[0] != 35 || g.PL[1] != 0 || g.PL[2] != 31 {
		t.Errorf("PL from GL = %v, want [35 0 31]", g.PL)
	}
}

func TestGenotypeFilters(t *testing.T) {
	c := newTestCodec(t, "NA00001", "NA00002")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:FT\t0/1:q10\t0/1:PASS")
	gts := realize(t, rec)
	if len(gts[0].Filters) != 1 || gts[0].Filters[0] != "q10" {
		t.Errorf("sample 0 filters = %v, want [q10]", gts[0].Filters)
	}
	if gts[1].Filters != nil {
		t.Errorf("sample 1 filters = %v, want nil for PASS", gts[1].Filters)
	}
}

func TestGenotypeExtraAttribute(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT:HQ\t0/1:51,51")
	g := realize(t, rec)[0]
	if g.Attributes["HQ"] != "51,51" {
		t.Errorf("HQ attribute = %q, want 51,51", g.Attributes["HQ"])
	}
}

func TestGenotypeCountMismatch(t *testing.T) {
	c := newTestCodec(t, "NA00001", "NA00002")
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/1", true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Genotypes.Genotypes()
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError for missing sample column, got %v", err)
	}
}

func TestGenotypeTooManyValues(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/1:48", true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Genotypes.Genotypes()
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError for more values than keys, got %v", err)
	}
}

func TestGTMustLead(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGQ:GT\t48:0/1", true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Genotypes.Genotypes()
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError for GT not first, got %v", err)
	}
}

func TestGTMandatoryBeforeV41(t *testing.T) {
	lines := []string{
		"##fileformat=VCFv4.0",
		"##FORMAT=<ID=GQ,Number=1,Type=Integer,Description=\"Genotype Quality\">",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA00001",
	}
	h, err := ParseHeaderLines(lines)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCodec()
	if _, err := c.SetHeader(h); err != nil {
		t.Fatal(err)
	}
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGQ\t48", true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Genotypes.Genotypes()
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError for a missing GT field before v4.1, got %v", err)
	}
	if !strings.Contains(err.Error(), "GT") {
		t.Errorf("error should name the GT field: %v", err)
	}
}

func TestGTIndexOutOfRange(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/2", true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Genotypes.Genotypes()
	var internal *InternalCodecError
	if !errors.As(err, &internal) {
		t.Fatalf("expected InternalCodecError for an out-of-range allele index, got %v", err)
	}
}

func TestAlleleListSharedAcrossSamples(t *testing.T) {
	c := newTestCodec(t, "NA00001", "NA00002")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/1\t0/1")
	gts := realize(t, rec)
	if gts[0] == gts[1] {
		t.Fatal("samples must get distinct genotype objects")
	}
	// identical GT strings resolve through the per-line cache to one list
	if &gts[0].Alleles[0] != &gts[1].Alleles[0] {
		t.Error("identical GT calls should share the cached allele list")
	}
}

func TestLazyRealizationForSortedSamples(t *testing.T) {
	c := newTestCodec(t, "A", "B")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/0\t0/1")
	if rec.Genotypes.IsRealized() {
		t.Error("sorted-sample files should defer genotype decoding")
	}
	if rec.Genotypes.Len() != 2 {
		t.Errorf("Len = %d, want 2 without realization", rec.Genotypes.Len())
	}
	gts := realize(t, rec)
	if !rec.Genotypes.IsRealized() {
		t.Error("container should be realized after first access")
	}
	if gts[0].SampleName != "A" || gts[1].SampleName != "B" {
		t.Errorf("sample order = %s,%s", gts[0].SampleName, gts[1].SampleName)
	}
}

func TestEagerRealizationForUnsortedSamples(t *testing.T) {
	c := newTestCodec(t, "B", "A")
	rec := decodeOne(t, c, "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/0\t0/1")
	if !rec.Genotypes.IsRealized() {
		t.Fatal("unsorted-sample files must decode genotypes eagerly")
	}
	gts := realize(t, rec)
	if gts[0].SampleName != "A" || gts[1].SampleName != "B" {
		t.Errorf("genotypes must be resorted by sample name, got %s,%s", gts[0].SampleName, gts[1].SampleName)
	}
	// B's column was 0/0, and it must still own it after resorting
	if gts[1].Alleles[1].Bases != "G" {
		t.Errorf("sample B alleles = %v, want 0/0", gts[1].Alleles)
	}
}

func TestGenotypesSkippedWhenNotRequested(t *testing.T) {
	c := newTestCodec(t, "NA00001")
	rec, err := c.DecodeLine(NewDecodeContext(), "20\t14370\t.\tG\tA\t.\t.\t.\tGT\t0/1", false)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Genotypes != nil {
		t.Error("genotype container must be nil when decoding sites only")
	}
}
