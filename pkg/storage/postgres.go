package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresKV is a KV backed by a single "key bytea primary key, value
// bytea" table, grounded on the teacher's pkg/database/client.go
// connection-pooling posture (database/sql with the lib/pq driver,
// PingContext on open, a bounded context on every query).
type PostgresKV struct {
	db *sql.DB
}

// OpenPostgresKV opens dsn, verifies connectivity, and ensures the
// snapshot table exists.
func OpenPostgresKV(dsn string) (*PostgresKV, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, xStorage("postgres.open", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, xStorage("postgres.ping", err)
	}

	const createTable = `CREATE TABLE IF NOT EXISTS runtime_kv (
		key   BYTEA PRIMARY KEY,
		value BYTEA NOT NULL
	)`
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, xStorage("postgres.migrate", err)
	}

	return &PostgresKV{db: db}, nil
}

// Close releases the connection pool.
func (p *PostgresKV) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Get returns the value stored under key, or a nil slice if absent.
func (p *PostgresKV) Get(key []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var value []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM runtime_kv WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, xStorage("postgres.get", err)
	}
	return value, nil
}

// Set upserts value under key.
func (p *PostgresKV) Set(key, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const upsert = `INSERT INTO runtime_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := p.db.ExecContext(ctx, upsert, key, value); err != nil {
		return xStorage("postgres.set", err)
	}
	return nil
}
