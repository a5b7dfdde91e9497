package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store wraps the Postgres connection pool
type Store struct {
	DB *sql.DB
}

// Interaction is one persisted chat exchange. Rows are append-only: they are
// never updated after insertion, and deletion happens only through the bulk
// Clear operation.
type Interaction struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Response    string    `json:"response"`
	SourceURLs  []string  `json:"sources"`
	Timestamp   time.Time `json:"timestamp"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	UseContext  bool      `json:"use_context"`
}

// New opens the Postgres pool and verifies connectivity
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// SaveInteraction appends one interaction and returns its id
func (s *Store) SaveInteraction(ctx context.Context, in Interaction) (string, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO chat_history (id, query, response, source_urls, created_at, max_tokens, temperature, use_context)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, in.Query, in.Response, pq.Array(in.SourceURLs), in.Timestamp, in.MaxTokens, in.Temperature, in.UseContext)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListInteractions returns a page of interactions ordered by recency
// descending, plus the total row count.
func (s *Store) ListInteractions(ctx context.Context, limit, offset int) ([]Interaction, int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, query, response, source_urls, created_at, max_tokens, temperature, use_context
FROM chat_history ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Interaction
	for rows.Next() {
		var in Interaction
		var urls pq.StringArray
		if err := rows.Scan(&in.ID, &in.Query, &in.Response, &urls, &in.Timestamp, &in.MaxTokens, &in.Temperature, &in.UseContext); err != nil {
			return nil, 0, err
		}
		in.SourceURLs = []string(urls)
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ClearInteractions bulk-deletes all interactions and returns how many were
// removed.
func (s *Store) ClearInteractions(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_history`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountInteractions returns the total number of stored interactions
func (s *Store) CountInteractions(ctx context.Context) (int, error) {
	var total int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history`).Scan(&total)
	return total, err
}
