package main

import (
	"context"
	"fmt"

	"condo-ballots/internal/config"
	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/vote"
	api "condo-ballots/internal/http"
	"condo-ballots/internal/platform/database"
	"condo-ballots/internal/repository/postgres"
	"condo-ballots/internal/repository/sqlite"
)

type memberStore interface {
	member.Repository
	Save(ctx context.Context, m member.Member) error
}

type store struct {
	ballots ballot.Repository
	votes   vote.Repository
	members memberStore
	db      api.Pinger
	migrate func(ctx context.Context) error
	close   func() error
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		gdb, err := database.NewSQLite(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		return &store{
			ballots: sqlite.NewBallotRepo(gdb),
			votes:   sqlite.NewVoteRepo(gdb),
			members: sqlite.NewMemberRepo(gdb),
			db:      sqlDB,
			migrate: func(context.Context) error { return sqlite.Migrate(gdb) },
			close:   sqlDB.Close,
		}, nil
	default:
		db, err := database.NewPostgres(ctx, cfg.DBDSN, database.PoolConfig{})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &store{
			ballots: postgres.NewBallotRepo(db),
			votes:   postgres.NewVoteRepo(db),
			members: postgres.NewMemberRepo(db),
			db:      db,
			migrate: func(ctx context.Context) error { return database.CreateSchema(ctx, db) },
			close:   db.Close,
		}, nil
	}
}
