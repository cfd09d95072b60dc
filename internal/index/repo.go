package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/notesplit/internal/apperr"
	"github.com/starford/notesplit/internal/refactor"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Props     refactor.Metadata
	UpdatedAt time.Time
}

// UpsertNote inserts or replaces a note and its outgoing links in one
// transaction.
func (db *DB) UpsertNote(n NoteRow, links []string) error {
	propsJSON, err := json.Marshal(n.Props)
	if err != nil {
		return fmt.Errorf("index: encode props: %w", err)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, props, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			props      = excluded.props,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(propsJSON), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing links.
func (db *DB) DeleteNote(p string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, p); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns the indexed row for p or apperr.ErrNotFound.
func (db *DB) GetNote(p string) (*NoteRow, error) {
	var (
		row   NoteRow
		props string
	)
	err := db.conn.QueryRow(`SELECT path, title, checksum, props, updated_at FROM notes WHERE path = ?`, p).
		Scan(&row.Path, &row.Title, &row.Checksum, &props, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	if err := json.Unmarshal([]byte(props), &row.Props); err != nil {
		return nil, fmt.Errorf("index: decode props: %w", err)
	}
	return &row, nil
}

// ListNotes returns one page of indexed notes ordered by path, and the
// total number of notes.
func (db *DB) ListNotes(limit, offset int) ([]NoteRow, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT path, title, checksum, props, updated_at
		FROM notes
		ORDER BY path
		LIMIT ? OFFSET ?
	`, limit, max(offset, 0))
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var (
			r     NoteRow
			props string
		)
		if err := rows.Scan(&r.Path, &r.Title, &r.Checksum, &props, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal([]byte(props), &r.Props); err != nil {
			return nil, 0, fmt.Errorf("index: decode props: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllChecksums maps every indexed path to its stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the notes whose wikilinks resolve to the vault path p,
// either by full path stem or by bare file name.
func (db *DB) Backlinks(p string) ([]string, error) {
	stem := strings.TrimSuffix(p, ".md")
	base := path.Base(stem)
	rows, err := db.conn.Query(`
		SELECT DISTINCT source FROM links
		WHERE target IN (?, ?, ?, ?)
		ORDER BY source
	`, stem, stem+".md", base, base+".md")
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
