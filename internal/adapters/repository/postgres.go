package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/scorekeeper/pkg/logger"
)

const (
	pgMaxConns        = 4
	pgMaxConnLifetime = time.Hour
	pgMaxConnIdleTime = 30 * time.Minute
	pgHealthCheck     = time.Minute
)

// pgPool is the subset of *pgxpool.Pool the store uses.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore persists runs in PostgreSQL. Each save writes the run row,
// the player totals and the action ledger in one transaction.
type PostgresStore struct {
	pool pgPool
	log  logger.Logger
}

// NewPostgresStore connects to dsn, pings the server and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: empty dsn: %w", ErrInvalidStore)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}
	if cfg.MaxConns == 0 || cfg.MaxConns > pgMaxConns {
		cfg.MaxConns = pgMaxConns
	}
	cfg.MaxConnLifetime = pgMaxConnLifetime
	cfg.MaxConnIdleTime = pgMaxConnIdleTime
	cfg.HealthCheckPeriod = pgHealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	return newPostgresStore(ctx, pool, opts...)
}

func newPostgresStore(ctx context.Context, pool pgPool, opts ...Option) (*PostgresStore, error) {
	o := apply(opts)
	s := &PostgresStore{pool: pool, log: o.log.Named("postgres_store")}
	if o.migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies every migration not yet recorded in the migrations table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`, migrationsTable)
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("postgres store: create migrations table: %w", err)
	}

	for _, m := range migrations() {
		var applied bool
		err := s.pool.QueryRow(ctx,
			fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE version = $1)", migrationsTable),
			m.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("postgres store: check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}
		err = s.withTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", migrationsTable),
				m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("postgres store: migration %d (%s): %w", m.Version, m.Name, err)
		}
		s.log.Info(ctx, "migration applied", logger.Int("version", m.Version), logger.String("name", m.Name))
	}
	return nil
}

// Save inserts run in one transaction.
func (s *PostgresStore) Save(ctx context.Context, run Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("postgres store: marshal run: %w", err)
	}
	channels := run.Channels
	if channels == nil {
		channels = []string{}
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO runs (id, started_at, finished_at, channels, payload) VALUES ($1, $2, $3, $4, $5)`,
			run.ID, run.StartedAt, run.FinishedAt, channels, payload); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"run_players"},
			[]string{"run_id", "name", "exp", "rep", "jce"},
			pgx.CopyFromRows(playerRows(run))); err != nil {
			return fmt.Errorf("copy players: %w", err)
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"run_actions"},
			[]string{"run_id", "day", "player", "seq", "kind", "description", "exp", "rep", "jce"},
			pgx.CopyFromRows(actionRows(run))); err != nil {
			return fmt.Errorf("copy actions: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres store: save %s: %w", run.ID, err)
	}

	s.log.Info(ctx, "run saved",
		logger.String("run_id", run.ID.String()),
		logger.Int("players", len(run.Export.Players)))
	return nil
}

// Latest returns the payload of the most recently finished run.
func (s *PostgresStore) Latest(ctx context.Context) (Run, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM runs ORDER BY finished_at DESC, created_at DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("postgres store: latest: %w", err)
	}
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, fmt.Errorf("postgres store: %w: %w", ErrCorruptRun, err)
	}
	return run, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func playerRows(run Run) [][]any {
	rows := make([][]any, 0, len(run.Export.Players))
	for _, p := range run.Export.Players {
		rows = append(rows, []any{run.ID, p.Name, p.EXP, p.REP, p.JCE})
	}
	return rows
}

// actionRows flattens the ledger. seq numbers a player's actions within a day.
func actionRows(run Run) [][]any {
	var rows [][]any
	for _, day := range run.Export.ScoreHistory {
		when := day.Date.Time()
		for _, score := range day.Scores {
			for i, a := range score.Actions {
				rows = append(rows, []any{
					run.ID, when, score.Name, i,
					a.Type.String(), a.Description, a.EXP, a.REP, a.JCE,
				})
			}
		}
	}
	return rows
}
