// Package storage caches collected report records in a SQLite database
// so query commands don't rerun the full pipeline.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/matsen/refcollect/internal/report"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectRecordFields contains the standard field list for SELECT queries.
const selectRecordFields = `key, unknown, title, authors_json, pub_year,
	doi, url, abstract, first_seq, order_num`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Per-citation-key records
		CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			unknown INTEGER NOT NULL,
			title TEXT,
			authors_json TEXT,
			pub_year INTEGER,
			doi TEXT,
			url TEXT,
			abstract TEXT,
			first_seq INTEGER NOT NULL,
			order_num INTEGER NOT NULL
		);

		-- Individual citation occurrences with resolved locations
		CREATE TABLE IF NOT EXISTS occurrences (
			key TEXT NOT NULL,
			seq INTEGER NOT NULL,
			file TEXT NOT NULL,
			src_line INTEGER NOT NULL,
			src_col INTEGER NOT NULL,
			snippet TEXT,
			page INTEGER,
			pdf_line INTEGER,
			PRIMARY KEY (key, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_occurrences_key ON occurrences(key);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the database and repopulates it from collected records.
// Returns the number of records stored.
func (d *DB) Rebuild(records []*report.Record) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return 0, fmt.Errorf("clearing records table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM occurrences"); err != nil {
		return 0, fmt.Errorf("clearing occurrences table: %w", err)
	}

	recStmt, err := tx.Prepare(`
		INSERT INTO records (
			key, unknown, title, authors_json, pub_year,
			doi, url, abstract, first_seq, order_num
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing records insert: %w", err)
	}
	defer recStmt.Close()

	occStmt, err := tx.Prepare(`
		INSERT INTO occurrences (key, seq, file, src_line, src_col, snippet, page, pdf_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing occurrences insert: %w", err)
	}
	defer occStmt.Close()

	for _, rec := range records {
		var authorsJSON []byte
		if len(rec.Authors) > 0 {
			authorsJSON, err = json.Marshal(rec.Authors)
			if err != nil {
				return 0, fmt.Errorf("marshaling authors for %s: %w", rec.Key, err)
			}
		}

		_, err = recStmt.Exec(
			rec.Key, boolToInt(rec.Unknown),
			nullableString(rec.Title), nullableString(string(authorsJSON)),
			nullableInt(rec.Year),
			nullableString(rec.DOI), nullableString(rec.URL), nullableString(rec.Abstract),
			rec.FirstSeq, rec.OrderNum,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", rec.Key, err)
		}

		for _, p := range rec.Occurrences {
			_, err = occStmt.Exec(
				p.Occurrence.Key, p.Occurrence.Seq,
				p.Occurrence.File, p.Occurrence.Line, p.Occurrence.Column,
				nullableString(p.Occurrence.Snippet),
				nullableInt(p.Location.Page), nullableInt(p.Location.Line),
			)
			if err != nil {
				return 0, fmt.Errorf("inserting occurrence %s#%d: %w", p.Occurrence.Key, p.Occurrence.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	return len(records), nil
}

// GetByKey retrieves a record and its occurrences by citation key.
// Returns nil when the key is not present.
func (d *DB) GetByKey(key string) (*report.Record, error) {
	row := d.db.QueryRow(`SELECT `+selectRecordFields+` FROM records WHERE key = ?`, key)
	rec, err := scanRecord(row)
	if err != nil || rec == nil {
		return rec, err
	}

	if err := d.loadOccurrences(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns all records ordered by first occurrence, with their
// occurrences attached. A limit of 0 means no limit.
func (d *DB) ListRecords(limit int) ([]*report.Record, error) {
	query := `SELECT ` + selectRecordFields + ` FROM records ORDER BY first_seq`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []*report.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		if err := d.loadOccurrences(rec); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// ListKeys returns all citation keys ordered by first occurrence.
func (d *DB) ListKeys() ([]string, error) {
	rows, err := d.db.Query("SELECT key FROM records ORDER BY first_seq")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Count returns the total number of records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

// CountOccurrences returns the total number of stored occurrences.
func (d *DB) CountOccurrences() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM occurrences").Scan(&count)
	return count, err
}

func (d *DB) loadOccurrences(rec *report.Record) error {
	rows, err := d.db.Query(`
		SELECT key, seq, file, src_line, src_col, snippet, page, pdf_line
		FROM occurrences
		WHERE key = ?
		ORDER BY seq
	`, rec.Key)
	if err != nil {
		return fmt.Errorf("loading occurrences for %s: %w", rec.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p report.Placed
		var snippet sql.NullString
		var page, pdfLine sql.NullInt64
		err := rows.Scan(
			&p.Occurrence.Key, &p.Occurrence.Seq,
			&p.Occurrence.File, &p.Occurrence.Line, &p.Occurrence.Column,
			&snippet, &page, &pdfLine,
		)
		if err != nil {
			return err
		}
		p.Occurrence.Snippet = snippet.String
		if page.Valid {
			p.Location.Page = int(page.Int64)
		}
		if pdfLine.Valid {
			p.Location.Line = int(pdfLine.Int64)
		}
		rec.Occurrences = append(rec.Occurrences, p)
	}
	return rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*report.Record, error) {
	var rec report.Record
	var unknown int
	var title, authorsJSON, doi, url, abstract sql.NullString
	var pubYear sql.NullInt64

	err := s.Scan(
		&rec.Key, &unknown, &title, &authorsJSON, &pubYear,
		&doi, &url, &abstract, &rec.FirstSeq, &rec.OrderNum,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec.Unknown = unknown != 0
	rec.Title = title.String
	rec.DOI = doi.String
	rec.URL = url.String
	rec.Abstract = abstract.String
	if pubYear.Valid {
		rec.Year = int(pubYear.Int64)
	}
	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &rec.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors JSON for %s: %w", rec.Key, err)
		}
	}

	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts an int to sql.NullInt64, treating zero as NULL.
func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
