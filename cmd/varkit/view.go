package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/varkit/internal/reader"
	"github.com/inodb/varkit/internal/vcf"
)

func newViewCmd(verbose *bool) *cobra.Command {
	var withGenotypes bool

	cmd := &cobra.Command{
		Use:   "view <file.vcf[.gz]>",
		Short: "Decode and print every record in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(args[0], withGenotypes, *verbose)
		},
	}

	cmd.Flags().BoolVar(&withGenotypes, "genotypes", false, "Include per-sample genotype calls in the output")

	return cmd
}

func runView(path string, withGenotypes, verbose bool) error {
	if !vcf.CanDecodeFile(path) {
		return fmt.Errorf("%s is not a recognized VCF file", path)
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	r, err := reader.New(path, reader.WithLogger(logger))
	if err != nil {
		return err
	}
	defer r.Close()

	it, err := r.Iter()
	if err != nil {
		return err
	}
	defer it.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if err := printRecord(out, rec, withGenotypes); err != nil {
			return err
		}
	}
}

func printRecord(out *bufio.Writer, rec *vcf.Record, withGenotypes bool) error {
	alts := make([]string, 0, len(rec.Alt()))
	for _, a := range rec.Alt() {
		alts = append(alts, a.Bases)
	}

	qual := "."
	if rec.HasQual() {
		qual = fmt.Sprintf("%g", rec.QualLog10PError)
	}

	filter := "."
	switch {
	case rec.Filters == nil:
	case len(rec.Filters) == 0:
		filter = "PASS"
	default:
		filter = strings.Join(rec.Filters, ";")
	}

	id := rec.ID
	if id == "" {
		id = "."
	}

	if _, err := fmt.Fprintf(out, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
		rec.Contig, rec.Start, rec.Stop, id, rec.Ref().Bases, strings.Join(alts, ","), qual, filter); err != nil {
		return err
	}

	if withGenotypes && rec.Genotypes != nil {
		gts, err := rec.Genotypes.Genotypes()
		if err != nil {
			return err
		}
		for _, g := range gts {
			calls := make([]string, 0, len(g.Alleles))
			for _, a := range g.Alleles {
				calls = append(calls, a.Bases)
			}
			sep := "/"
			if g.Phased {
				sep = "|"
			}
			if _, err := fmt.Fprintf(out, "\t%s\t%s\n", g.SampleName, strings.Join(calls, sep)); err != nil {
				return err
			}
		}
	}
	return nil
}
