package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/varkit/internal/reader"
)

func newQueryCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <file.vcf> <contig:start-end>",
		Short: "Print records overlapping a genomic interval (requires an index)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contig, start, end, err := parseRegion(args[1])
			if err != nil {
				return err
			}
			return runQuery(args[0], contig, start, end, *verbose)
		},
	}
	return cmd
}

// parseRegion parses "contig:start-end" (1-based, inclusive).
func parseRegion(region string) (string, int, int, error) {
	colon := strings.LastIndexByte(region, ':')
	if colon == -1 {
		return "", 0, 0, fmt.Errorf("invalid region %q: expected contig:start-end", region)
	}
	contig := region[:colon]
	rangeStr := region[colon+1:]
	dash := strings.IndexByte(rangeStr, '-')
	if dash == -1 {
		return "", 0, 0, fmt.Errorf("invalid region %q: expected contig:start-end", region)
	}
	start, err := strconv.Atoi(rangeStr[:dash])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region start %q", rangeStr[:dash])
	}
	end, err := strconv.Atoi(rangeStr[dash+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region end %q", rangeStr[dash+1:])
	}
	if start < 1 || end < start {
		return "", 0, 0, fmt.Errorf("invalid region %q: start must be >= 1 and end >= start", region)
	}
	return contig, start, end, nil
}

func runQuery(path, contig string, start, end int, verbose bool) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	r, err := reader.New(path, reader.WithLogger(logger), reader.RequireIndex())
	if err != nil {
		return err
	}
	defer r.Close()

	q, err := r.Query(contig, start, end)
	if err != nil {
		return err
	}
	defer q.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		rec, err := q.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if err := printRecord(out, rec, false); err != nil {
			return err
		}
	}
}
