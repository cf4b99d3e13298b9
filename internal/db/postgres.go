package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoDatabaseURL means SUPABASE_DB_URL was empty when the pool was opened.
	ErrNoDatabaseURL = errors.New("database URL is not configured")
)

// Postgres owns the connection pool for its entire lifetime: opened once at
// startup by New, released once at shutdown by Close.
type Postgres struct {
	Pool *pgxpool.Pool

	closed bool
}

// New opens the connection pool and makes the schema ready. It fails with
// ErrNoDatabaseURL when the URL is empty and with a wrapped driver error when
// the endpoint is unreachable or rejects credentials.
func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, ErrNoDatabaseURL
	}

	poolConfig, err := pgxpool.ParseConfig(ensureSSLRequired(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connstr: %w", err)
	}

	poolConfig.MinConns = 1
	poolConfig.MaxConns = 10
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "campus_delivery_bot"
	// Bound every statement round-trip, matching the pool's command timeout.
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = "60000"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	p := &Postgres{Pool: pool}
	if err := p.Bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL, schema ready")
	return p, nil
}

// ensureSSLRequired forces TLS on connection strings that do not pick an
// sslmode themselves. Supabase rejects plain connections.
func ensureSSLRequired(databaseURL string) string {
	if strings.Contains(databaseURL, "sslmode=") {
		return databaseURL
	}
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "sslmode=require"
}

// Bootstrap creates every schema object the bot needs. All creation is
// conditional, so running it on every startup leaves existing data untouched.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			balance DECIMAL(10,2) DEFAULT 0.00,
			user_type TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id UUID DEFAULT uuid_generate_v4() PRIMARY KEY,
			telegram_id BIGINT NOT NULL REFERENCES users(telegram_id),
			order_number TEXT UNIQUE NOT NULL,
			cafe TEXT NOT NULL,
			name TEXT NOT NULL,
			gender CHAR(1) CHECK (gender IN ('M', 'F')),
			phone TEXT NOT NULL,
			time TEXT NOT NULL,
			food TEXT NOT NULL,
			place TEXT NOT NULL,
			total_items INTEGER NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			status TEXT DEFAULT 'pending',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_telegram_status
			ON orders (telegram_id, status)`,
	}

	for _, stmt := range stmts {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool. Safe to call more than once and on a handle that
// never finished opening.
func (p *Postgres) Close() {
	if p == nil || p.Pool == nil || p.closed {
		return
	}
	p.closed = true
	p.Pool.Close()
	log.Info().Msg("Database connection closed")
}

// ErrorCode returns the SQLSTATE of a driver error, or "" for anything else.
// Repositories compare it against pgerrcode constants to translate
// constraint violations into domain errors.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
