// Package export loads decoded variant records into a DuckDB database
// for ad-hoc SQL analysis.
package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/varkit/internal/vcf"
)

// RecordSource yields records one at a time, returning (nil, nil) when
// exhausted. Both the whole-file iterator and the query iterator satisfy
// it.
type RecordSource interface {
	Next() (*vcf.Record, error)
}

// DuckDB writes variant records into a DuckDB database file.
type DuckDB struct {
	db   *sql.DB
	path string
}

// OpenDuckDB opens (or creates) a DuckDB database at path. An S3 URL
// (s3://bucket/path.duckdb) is also accepted; DuckDB routes those through
// its httpfs extension.
func OpenDuckDB(path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if strings.HasPrefix(path, "s3://") {
		if _, err := db.Exec("INSTALL httpfs; LOAD httpfs;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("load httpfs extension: %w", err)
		}
	}
	return &DuckDB{db: db, path: path}, nil
}

// Close closes the database connection.
func (d *DuckDB) Close() error {
	return d.db.Close()
}

// CreateSchema creates the variants table, dropping any existing one.
func (d *DuckDB) CreateSchema() error {
	if _, err := d.db.Exec(`DROP TABLE IF EXISTS variants`); err != nil {
		return fmt.Errorf("drop variants table: %w", err)
	}
	_, err := d.db.Exec(`
		CREATE TABLE variants (
			contig      VARCHAR NOT NULL,
			start       BIGINT NOT NULL,
			stop        BIGINT NOT NULL,
			id          VARCHAR,
			ref         VARCHAR NOT NULL,
			alt         VARCHAR NOT NULL,
			qual        DOUBLE,
			filters     VARCHAR,
			attributes  VARCHAR
		)
	`)
	if err != nil {
		return fmt.Errorf("create variants table: %w", err)
	}
	return nil
}

// ExportAll drains the source into the variants table and returns the
// number of rows written.
func (d *DuckDB) ExportAll(src RecordSource) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO variants (contig, start, stop, id, ref, alt, qual, filters, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for {
		rec, err := src.Next()
		if err != nil {
			tx.Rollback()
			return count, err
		}
		if rec == nil {
			break
		}
		if err := insertRecord(stmt, rec); err != nil {
			tx.Rollback()
			return count, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

func insertRecord(stmt *sql.Stmt, rec *vcf.Record) error {
	var id any
	if rec.HasID() {
		id = rec.ID
	}
	var qual any
	if rec.HasQual() {
		qual = rec.QualLog10PError
	}
	var filters any
	if rec.Filters != nil {
		filters = strings.Join(rec.Filters, ";")
	}

	alts := make([]string, 0, len(rec.Alt()))
	for _, a := range rec.Alt() {
		alts = append(alts, a.Bases)
	}

	if _, err := stmt.Exec(
		rec.Contig, rec.Start, rec.Stop, id,
		rec.Ref().Bases, strings.Join(alts, ","),
		qual, filters, formatAttributes(rec.Attributes),
	); err != nil {
		return fmt.Errorf("insert variant %s: %w", rec, err)
	}
	return nil
}

func formatAttributes(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if flag, ok := v.(bool); ok && flag {
			parts = append(parts, k)
			continue
		}
		if list, ok := v.([]string); ok {
			parts = append(parts, k+"="+strings.Join(list, ","))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ";")
}
