package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/discord"
	"github.com/okian/scorekeeper/internal/adapters/fixture"
	"github.com/okian/scorekeeper/internal/adapters/repository"
	service "github.com/okian/scorekeeper/internal/app"
	"github.com/okian/scorekeeper/internal/config"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/okian/scorekeeper/pkg/logger"
)

// ErrPersist marks a completed run that one or more stores failed to save.
var ErrPersist = errors.New("persist run")

// App is the wired process: platform, replayer and stores.
type App struct {
	cfg      *config.Config
	log      logger.Logger
	replayer *service.Replayer
	memory   *repository.MemoryStore
	store    *repository.MultiStore
	closers  []func()
}

// newApp builds every collaborator the config asks for. Stores that need a
// network connection are opened here, so a bad DSN fails before the replay.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, memory: repository.NewMemoryStore()}

	platform, err := a.platform(ctx)
	if err != nil {
		return nil, err
	}
	replayer, err := a.newReplayer(platform)
	if err != nil {
		return nil, err
	}
	a.replayer = replayer

	store, err := a.stores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	return a, nil
}

func (a *App) platform(ctx context.Context) (service.Platform, error) {
	if a.cfg.UsesFixture() {
		p, err := fixture.Load(a.cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		a.log.Info(ctx, "replaying fixture", logger.String("path", a.cfg.FixturePath))
		return p, nil
	}
	c, err := discord.New(a.cfg.DiscordToken, a.cfg.GuildID, discord.WithLogger(a.log.Named("discord")))
	if err != nil {
		return nil, fmt.Errorf("discord client: %w", err)
	}
	return c, nil
}

func (a *App) newReplayer(platform service.Platform) (*service.Replayer, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	start, err := a.cfg.GameStart()
	if err != nil {
		return nil, err
	}
	book, err := a.cfg.Questbook()
	if err != nil {
		return nil, err
	}
	board := scoreboard.New(
		scoreboard.WithRules(a.cfg.Rules()),
		scoreboard.WithLocation(loc),
		scoreboard.WithQuestbook(book),
		scoreboard.WithLogger(a.log.Named("scoreboard")),
	)
	return service.New(platform,
		service.WithScoreboard(board),
		service.WithGameStart(start),
		service.WithHistoryLimit(a.cfg.HistoryLimit),
		service.WithReactionWorkers(a.cfg.ReactionWorkers),
		service.WithFetchTimeout(a.cfg.FetchTimeout),
		service.WithDedupeSize(a.cfg.DedupeSize),
		service.WithLogger(a.log.Named("replayer")),
	), nil
}

// stores opens every configured persistence target. The in-memory store is
// always first so the read API sees the run even when a remote save fails.
func (a *App) stores(ctx context.Context) (*repository.MultiStore, error) {
	opts := []repository.Option{repository.WithLogger(a.log)}
	named := []repository.Named{{Name: "memory", Store: a.memory}}

	if a.cfg.OutputPath != "" {
		fs, err := repository.NewFileStore(a.cfg.OutputPath, opts...)
		if err != nil {
			return nil, err
		}
		named = append(named, repository.Named{Name: "file", Store: fs})
	}
	if a.cfg.PostgresDSN != "" {
		pg, err := repository.NewPostgresStore(ctx, a.cfg.PostgresDSN, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		named = append(named, repository.Named{Name: "postgres", Store: pg})
	}
	if a.cfg.RedisAddr != "" {
		rs, err := repository.NewRedisStore(ctx, repository.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		}, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		named = append(named, repository.Named{Name: "redis", Store: rs})
	}
	return repository.NewMultiStore(named, opts...)
}

// Execute replays the configured channels and persists the export.
// Nothing is persisted unless the run reaches Done. A failed save still
// returns the run, which the memory store keeps serving.
func (a *App) Execute(ctx context.Context) (repository.Run, error) {
	export, err := a.replayer.Run(ctx, a.cfg.Channels...)
	if err != nil {
		return repository.Run{}, err
	}
	stats := a.replayer.Stats()
	run := repository.NewRun(stats.StartedAt, stats.FinishedAt, a.cfg.Channels, export)
	if stats.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	if err := a.store.Save(ctx, run); err != nil {
		return run, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return run, nil
}

// Replayer returns the wired replayer.
func (a *App) Replayer() *service.Replayer { return a.replayer }

// Store returns the store the read API serves from.
func (a *App) Store() repository.Store { return a.store }

// Close releases network stores.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
