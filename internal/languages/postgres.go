package languages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/davidschrooten/solr-schema-sync/config"
)

// Postgres runs a single-column query and returns its non-null text values
type Postgres struct {
	db    *sql.DB
	query string
}

// NewPostgres opens and pings the database
func NewPostgres(ctx context.Context, cfg config.PostgresLanguageConfig) (*Postgres, error) {
	pgCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*pgCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Postgres{db: db, query: cfg.Query}, nil
}

// Languages returns the query results in row order
func (p *Postgres) Languages(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, p.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code sql.NullString
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		if code.Valid {
			codes = append(codes, code.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read languages: %w", err)
	}
	return codes, nil
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}
