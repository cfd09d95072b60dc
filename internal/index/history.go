package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notesplit/internal/models"
)

const defaultHistoryLimit = 50

// RecordRefactor stores one refactor operation. ID and CreatedAt are filled
// in when empty.
func (db *DB) RecordRefactor(ctx context.Context, rec models.RefactorRecord) (models.RefactorRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO refactors (id, source, target, mode, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Target, rec.Mode, rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("index: record refactor: %w", err)
	}
	return rec, nil
}

// History returns the most recent refactors, newest first. A non-empty
// source restricts the result to operations on that note.
func (db *DB) History(ctx context.Context, source string, limit int) ([]models.RefactorRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, target, mode, created_at
		FROM refactors
		WHERE ? = '' OR source = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, source, source, limit)
	if err != nil {
		return nil, fmt.Errorf("index: history: %w", err)
	}
	defer rows.Close()

	var out []models.RefactorRecord
	for rows.Next() {
		var r models.RefactorRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.Target, &r.Mode, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
