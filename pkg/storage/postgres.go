package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS settings_slots (
	slot       TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres is a Backend persisting slots in a Postgres table through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the slot table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage: postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool. The caller owns the schema.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Read(ctx context.Context, key string) ([]byte, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	var blob []byte
	err = p.pool.QueryRow(ctx, `SELECT value FROM settings_slots WHERE slot = $1`, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return blob, true, nil
}

func (p *Postgres) Write(ctx context.Context, key string, blob []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if blob == nil {
		blob = []byte{}
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO settings_slots (slot, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, blob)
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM settings_slots WHERE slot = $1`, key); err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT slot FROM settings_slots WHERE left(slot, $1) = $2 ORDER BY slot`,
		utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	return keys, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
