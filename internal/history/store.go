// Package history persists a record of every search call in PostgreSQL so
// recent queries can be listed back.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/postgres"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Schema creates the search_history table.
const Schema = `
CREATE TABLE IF NOT EXISTS search_history (
    id             BIGSERIAL PRIMARY KEY,
    query          TEXT        NOT NULL,
    case_sensitive BOOLEAN     NOT NULL DEFAULT FALSE,
    whole_word     BOOLEAN     NOT NULL DEFAULT FALSE,
    use_regex      BOOLEAN     NOT NULL DEFAULT FALSE,
    files_searched INTEGER     NOT NULL,
    files_matched  INTEGER     NOT NULL,
    matches        INTEGER     NOT NULL,
    latency_ms     BIGINT      NOT NULL,
    request_id     TEXT        NOT NULL DEFAULT '',
    searched_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS search_history_searched_at_idx ON search_history (searched_at DESC);
`

// Entry is one recorded search.
type Entry struct {
	ID            int64               `json:"id"`
	Options       model.SearchOptions `json:"options"`
	FilesSearched int                 `json:"files_searched"`
	FilesMatched  int                 `json:"files_matched"`
	Matches       int                 `json:"matches"`
	LatencyMs     int64               `json:"latency_ms"`
	RequestID     string              `json:"request_id"`
	SearchedAt    time.Time           `json:"searched_at"`
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "history-store"),
	}
}

// EnsureSchema creates the history table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating search_history schema: %w", err)
	}
	return nil
}

// Record inserts e and fills in its ID and timestamp.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.SearchedAt.IsZero() {
		e.SearchedAt = time.Now().UTC()
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`INSERT INTO search_history
			    (query, case_sensitive, whole_word, use_regex, files_searched,
			     files_matched, matches, latency_ms, request_id, searched_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			e.Options.Query, e.Options.CaseSensitive, e.Options.WholeWord, e.Options.UseRegex,
			e.FilesSearched, e.FilesMatched, e.Matches, e.LatencyMs, e.RequestID, e.SearchedAt,
		).Scan(&e.ID)
	})
	if err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	s.logger.Debug("search recorded", "id", e.ID, "query", e.Options.Query)
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, query, case_sensitive, whole_word, use_regex, files_searched,
		        files_matched, matches, latency_ms, request_id, searched_at
		   FROM search_history
		  ORDER BY searched_at DESC, id DESC
		  LIMIT $1`,
		ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Options.Query, &e.Options.CaseSensitive, &e.Options.WholeWord, &e.Options.UseRegex,
			&e.FilesSearched, &e.FilesMatched, &e.Matches, &e.LatencyMs, &e.RequestID, &e.SearchedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ClampLimit maps a requested page size onto [1, MaxLimit], using
// DefaultLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
