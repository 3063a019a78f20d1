package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/varkit/internal/export"
	"github.com/inodb/varkit/internal/reader"
)

func newExportCmd(verbose *bool) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export <file.vcf[.gz]>",
		Short: "Load decoded records into a DuckDB database for ad-hoc SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = args[0] + ".duckdb"
			}
			return runExport(args[0], dbPath, *verbose)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database path (default: <file>.duckdb)")

	return cmd
}

func runExport(path, dbPath string, verbose bool) error {
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

	db, err := export.OpenDuckDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateSchema(); err != nil {
		return err
	}
	n, err := db.ExportAll(it)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d variants to %s\n", n, dbPath)
	return nil
}
