// Package postgres implements the slip ledger using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database/internal"
)

const uniqueViolation = "23505"

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables postsign.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.Slips}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Record(ctx context.Context, slip postsign.Slip) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, object_key, bucket, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query, slip.ID, slip.Key, slip.Bucket, slip.ExpiresAt.UTC(), slip.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("record: %w: slip for key %q already exists", postsign.ErrInvalidInput, slip.Key)
		}
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (postsign.Slip, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, bucket, expires_at, created_at
		FROM %s
		WHERE id = $1
	`, r.tableName)

	var s postsign.Slip
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Key, &s.Bucket, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return postsign.Slip{}, postsign.ErrNotFound
		}
		return postsign.Slip{}, fmt.Errorf("get: %w", err)
	}

	return normalize(s), nil
}

func (r *Repo) List(ctx context.Context, q postsign.ListQuery) (postsign.SlipList, error) {
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
			WHERE object_key LIKE $1 || '%%'
			ORDER BY created_at, object_key
			LIMIT $2
		`, r.tableName)
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, object_key, bucket, expires_at, created_at
			FROM %s
			WHERE object_key LIKE $1 || '%%' AND (created_at, object_key) > ($2, $3)
			ORDER BY created_at, object_key
			LIMIT $4
		`, r.tableName)
		args = []any{escapedPrefix, cursor.CreatedAt, cursor.Key, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return postsign.SlipList{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]postsign.Slip, 0, q.Limit)
	for rows.Next() {
		var s postsign.Slip
		if err := rows.Scan(&s.ID, &s.Key, &s.Bucket, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return postsign.SlipList{}, fmt.Errorf("list: scan: %w", err)
		}
		items = append(items, normalize(s))
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

func (r *Repo) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("delete expired: %w: limit must be positive", postsign.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE id IN (
			SELECT id FROM %[1]s
			WHERE expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, before.UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func normalize(s postsign.Slip) postsign.Slip {
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s
}
