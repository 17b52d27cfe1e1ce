// Package database opens the Postgres pool behind the audit store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"creditgate/internal/platform/config"
)

// ErrNotConfigured is returned by Open when no URL is set.
var ErrNotConfigured = errors.New("database url not configured")

const pingTimeout = 5 * time.Second

// Pool is the shared *sql.DB. Audit writes are synchronous, so MaxOpenConns
// also bounds how many requests can be mid-insert at once; a saturated pool
// shows up as a context deadline on the caller.
type Pool struct {
	db *sql.DB
}

// Open connects and pings, retrying up to cfg.ConnectAttempts times with a
// doubling delay so the service can start alongside its database.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	attempts := max(cfg.ConnectAttempts, 1)
	delay := 250 * time.Millisecond
	for i := 1; ; i++ {
		err = ping(ctx, db)
		if err == nil {
			return &Pool{db: db}, nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(delay):
			delay *= 2
			continue
		}
		break
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping database after %d attempt(s): %w", attempts, err)
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

func (p *Pool) DB() *sql.DB { return p.db }

func (p *Pool) Name() string { return "database" }

func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return ErrNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
