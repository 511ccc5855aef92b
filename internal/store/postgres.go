package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// PostgresStore keeps each collection in its own table with a JSONB
// document column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	dbName string

	mu    sync.Mutex
	ready map[string]bool
}

// NewPostgres connects to PostgreSQL. When schema is non-empty, collection
// tables live in that schema (created on first use); otherwise the
// connection's current schema is used.
func NewPostgres(ctx context.Context, databaseURL, schema string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var dbName, current string
	if err := pool.QueryRow(ctx, `SELECT current_database(), current_schema()`).Scan(&dbName, &current); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to read current schema: %w", err)
	}

	if schema == "" {
		schema = current
	} else {
		if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(schema)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
		dbName = schema
	}

	return &PostgresStore{
		pool:   pool,
		schema: schema,
		dbName: dbName,
		ready:  make(map[string]bool),
	}, nil
}

func (p *PostgresStore) table(collection string) string {
	return pq.QuoteIdentifier(p.schema) + "." + pq.QuoteIdentifier(collection)
}

// ensureCollection creates the collection table the first time it is written.
func (p *PostgresStore) ensureCollection(ctx context.Context, collection string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready[collection] {
		return nil
	}

	query := `
		CREATE TABLE IF NOT EXISTS ` + p.table(collection) + ` (
			id         TEXT PRIMARY KEY,
			document   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	p.ready[collection] = true
	return nil
}

// Create inserts a document into the collection table.
func (p *PostgresStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	if err := p.ensureCollection(ctx, collection); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	doc, err := json.Marshal(stamp(fields, now))
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := NewID()
	query := `INSERT INTO ` + p.table(collection) + ` (id, document, created_at) VALUES ($1, $2, $3)`

	if _, err := p.pool.Exec(ctx, query, id, doc, now); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	return id, nil
}

// ListCollections returns the tables in the store's schema.
func (p *PostgresStore) ListCollections(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return names, nil
}

// Name returns the configured schema name, or the database name when none
// was configured.
func (p *PostgresStore) Name() string {
	return p.dbName
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to PostgresStore.
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}
