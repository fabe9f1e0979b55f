package repository

import (
	"context"
	"fmt"
	"time"

	"estate-suggest/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections sooner

	return &PostgresRepository{db: db}, nil
}

// NewRepositoryWithDB wraps an existing connection pool
func NewRepositoryWithDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS suggestion_logs (
		id               BIGSERIAL PRIMARY KEY,
		request_id       TEXT NOT NULL DEFAULT '',
		prompt           TEXT NOT NULL,
		outcome          TEXT NOT NULL,
		suggestion_count INTEGER NOT NULL DEFAULT 0,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// EnsureSchema creates the audit table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create suggestion_logs: %w", err)
	}
	return nil
}

// LogSuggestion logs a suggestion request
func (r *PostgresRepository) LogSuggestion(ctx context.Context, entry *model.SuggestionLog) error {
	query := `
		INSERT INTO suggestion_logs (request_id, prompt, outcome, suggestion_count, response_time_ms)
		VALUES (:request_id, :prompt, :outcome, :suggestion_count, :response_time_ms)
	`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to log suggestion: %w", err)
	}
	return nil
}
