// Package sqlite implements the slip ledger using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database/internal"
)

// timeLayout is fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Record(ctx context.Context, slip postsign.Slip) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, object_key, bucket, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		slip.ID.String(), slip.Key, slip.Bucket, formatTime(slip.ExpiresAt), formatTime(slip.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("record: %w: slip for key %q already exists", postsign.ErrInvalidInput, slip.Key)
		}
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (postsign.Slip, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, bucket, expires_at, created_at
		FROM %s
		WHERE id = ?`, r.tableName)

	slip, err := scanSlip(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return postsign.Slip{}, postsign.ErrNotFound
		}
		return postsign.Slip{}, fmt.Errorf("get: %w", err)
	}

	return slip, nil
}

func (r *repo) List(ctx context.Context, q postsign.ListQuery) (postsign.SlipList, error) {
	if q.Limit <= 0 {
		return postsign.SlipList{}, fmt.Errorf("list: %w: limit must be positive", postsign.ErrInvalidInput)
	}

	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return postsign.SlipList{}, fmt.Errorf("list: %w: %w", postsign.ErrInvalidInput, err)
	}

	escapedPrefix := internal.EscapeLikePattern(q.KeyPrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, object_key, bucket, expires_at, created_at
			FROM %s
			WHERE object_key LIKE ? || '%%' ESCAPE '\'
			ORDER BY created_at, object_key
			LIMIT ?
		`, r.tableName)
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, object_key, bucket, expires_at, created_at
			FROM %s
			WHERE object_key LIKE ? || '%%' ESCAPE '\' AND (created_at, object_key) > (?, ?)
			ORDER BY created_at, object_key
			LIMIT ?
		`, r.tableName)
		args = []any{escapedPrefix, formatTime(cursor.CreatedAt), cursor.Key, q.Limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return postsign.SlipList{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]postsign.Slip, 0, q.Limit)
	for rows.Next() {
		slip, scanErr := scanSlip(rows)
		if scanErr != nil {
			return postsign.SlipList{}, fmt.Errorf("list: %w", scanErr)
		}
		items = append(items, slip)
	}

	if err := rows.Err(); err != nil {
		return postsign.SlipList{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(lastItem.CreatedAt, lastItem.Key)
		items = items[:q.Limit]
	}

	return postsign.SlipList{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("delete expired: %w: limit must be positive", postsign.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %[1]s
		WHERE id IN (
			SELECT id FROM %[1]s
			WHERE expires_at < ?
			ORDER BY expires_at
			LIMIT ?
		)`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, formatTime(before), limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired: rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlip(row rowScanner) (postsign.Slip, error) {
	var s postsign.Slip
	var idStr, expiresAt, createdAt string

	if err := row.Scan(&idStr, &s.Key, &s.Bucket, &expiresAt, &createdAt); err != nil {
		return postsign.Slip{}, err
	}

	var err error
	s.ID, err = uuid.Parse(idStr)
	if err != nil {
		return postsign.Slip{}, fmt.Errorf("parse uuid: %w", err)
	}

	s.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return postsign.Slip{}, fmt.Errorf("parse expires_at: %w", err)
	}

	s.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return postsign.Slip{}, fmt.Errorf("parse created_at: %w", err)
	}

	return s, nil
}
