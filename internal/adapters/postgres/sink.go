// Package postgres mirrors output rows into a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"commentharvest/internal/core/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS comments (
	id                 BIGSERIAL PRIMARY KEY,
	run_id             TEXT        NOT NULL,
	video_id           TEXT        NOT NULL,
	video_no           TEXT        NOT NULL DEFAULT '',
	video_position     INTEGER     NOT NULL DEFAULT 0,
	video_date         TEXT        NOT NULL DEFAULT '',
	channel_name       TEXT        NOT NULL DEFAULT '',
	video_title        TEXT        NOT NULL DEFAULT '',
	video_url          TEXT        NOT NULL,
	total_comments     TEXT        NOT NULL DEFAULT '',
	total_likes        TEXT        NOT NULL DEFAULT '',
	total_views        TEXT        NOT NULL DEFAULT '',
	comment_position   INTEGER     NOT NULL,
	comment_text       TEXT        NOT NULL,
	author_name        TEXT        NOT NULL,
	upvotes            BIGINT      NOT NULL DEFAULT 0,
	downvotes          BIGINT      NOT NULL DEFAULT 0,
	reply_count        BIGINT      NOT NULL DEFAULT 0,
	comment_timestamp  TEXT        NOT NULL DEFAULT '',
	is_pinned          BOOLEAN     NOT NULL DEFAULT FALSE,
	is_hearted         BOOLEAN     NOT NULL DEFAULT FALSE,
	has_dislike_button BOOLEAN     NOT NULL DEFAULT FALSE,
	scraped_at         TIMESTAMPTZ NOT NULL
)`

const index = `CREATE INDEX IF NOT EXISTS comments_video_id_idx ON comments (video_id)`

// migrations bring tables created by older releases up to date.
var migrations = []string{
	`ALTER TABLE comments ADD COLUMN IF NOT EXISTS video_position INTEGER NOT NULL DEFAULT 0`,
}

const insertRow = `INSERT INTO comments (
	run_id, video_id, video_no, video_position, video_date, channel_name, video_title, video_url,
	total_comments, total_likes, total_views,
	comment_position, comment_text, author_name,
	upvotes, downvotes, reply_count, comment_timestamp,
	is_pinned, is_hearted, has_dislike_button, scraped_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

// Sink writes rows through a connection pool.
type Sink struct {
	Pool *pgxpool.Pool
}

// New connects to databaseURL and creates the comments table if needed.
func New(ctx context.Context, databaseURL string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range append([]string{schema, index}, migrations...) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create comments table: %w", err)
		}
	}
	return &Sink{Pool: pool}, nil
}

// Write inserts one page's rows in a single transaction.
func (s *Sink) Write(ctx context.Context, rows []domain.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(insertRow, rowArgs(row)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert %d comments: %w", len(rows), err)
	}
	return nil
}

// Close releases the pool.
func (s *Sink) Close() error {
	s.Pool.Close()
	return nil
}

func rowArgs(row domain.OutputRow) []any {
	it, r := row.Item, row.Record
	return []any{
		row.RunID, it.ID, it.No, it.Position, it.Date, it.Channel, it.Title, it.URL,
		it.Comments, it.Likes, it.Views,
		r.Position, r.Text, r.Author,
		r.Upvotes, r.Downvotes, r.Replies, r.Timestamp,
		r.Pinned, r.Hearted, r.HasDislike, row.ScrapedAt,
	}
}
