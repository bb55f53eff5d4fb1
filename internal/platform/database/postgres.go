package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"condo-ballots/internal/retry"
)

type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	PingAttempts int
}

// NewPostgres opens a pgx-backed pool and waits until the server answers.
func NewPostgres(ctx context.Context, dsn string, pc PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if pc.MaxOpenConns <= 0 {
		pc.MaxOpenConns = 10
	}
	if pc.MaxIdleConns <= 0 {
		pc.MaxIdleConns = 5
	}
	if pc.PingAttempts <= 0 {
		pc.PingAttempts = 6
	}
	db.SetMaxOpenConns(pc.MaxOpenConns)
	db.SetMaxIdleConns(pc.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	err = retry.DoWithRetry(ctx, pc.PingAttempts, 250*time.Millisecond, func(int) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
