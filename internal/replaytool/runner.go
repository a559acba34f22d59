package replaytool

import (
	"context"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/fixture"
	"github.com/okian/scorekeeper/internal/adapters/repository"
	service "github.com/okian/scorekeeper/internal/app"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/okian/scorekeeper/internal/domain/types"
	"github.com/okian/scorekeeper/pkg/logger"
)

// Result is the outcome of one replay.
type Result struct {
	Export      model.Export
	Stats       service.Stats
	Leaderboard []types.Entry
	Duration    time.Duration
}

// Run executes the complete offline replay and prints the totals to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (Result, error) {
	started := time.Now()
	log := logger.Get().Named("replay-fixture")

	log.Info(ctx, "starting fixture replay",
		logger.String("fixture", cfg.FixturePath),
		logger.Any("channels", cfg.Channels),
		logger.String("gameStart", cfg.GameStart),
		logger.Int("workers", cfg.Workers),
		logger.Bool("generate", cfg.Generate.Enabled()))

	start, err := model.ParseDate(cfg.GameStart)
	if err != nil {
		return Result{}, fmt.Errorf("game start: %w", err)
	}

	// Step 1: Generate a synthetic fixture when asked
	if cfg.Generate.Enabled() {
		h, err := Generate(ctx, cfg.Generate, cfg.Channels[0], start, cfg.Workers)
		if err != nil {
			return Result{}, fmt.Errorf("fixture generation failed: %w", err)
		}
		if err := h.Save(cfg.FixturePath); err != nil {
			return Result{}, fmt.Errorf("save generated fixture: %w", err)
		}
		log.Info(ctx, "fixture saved", logger.String("path", cfg.FixturePath))
	}

	// Step 2: Replay
	platform, err := fixture.Load(cfg.FixturePath)
	if err != nil {
		return Result{}, fmt.Errorf("load fixture: %w", err)
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = math.MaxInt
	}
	replayer := service.New(platform,
		service.WithScoreboard(scoreboard.New(scoreboard.WithLogger(log.Named("scoreboard")))),
		service.WithGameStart(start),
		service.WithHistoryLimit(limit),
		service.WithReactionWorkers(cfg.Workers),
		service.WithFetchTimeout(cfg.Timeout),
		service.WithDedupeSize(0),
		service.WithLogger(log.Named("replayer")),
	)
	export, err := replayer.Run(ctx, cfg.Channels...)
	if err != nil {
		return Result{}, fmt.Errorf("replay failed: %w", err)
	}

	// Step 3: Verify
	if err := service.VerifyConservation(export); err != nil {
		return Result{}, fmt.Errorf("conservation check failed: %w", err)
	}
	log.Info(ctx, "conservation verified", logger.Int("players", len(export.Players)))

	res := Result{
		Export:      export,
		Stats:       replayer.Stats(),
		Leaderboard: types.Leaderboard(export.Players, types.ByEXP),
	}

	// Step 4: Write the export
	if cfg.OutputPath != "" {
		store, err := repository.NewFileStore(cfg.OutputPath, repository.WithLogger(log))
		if err != nil {
			return Result{}, err
		}
		run := repository.NewRun(res.Stats.StartedAt, res.Stats.FinishedAt, cfg.Channels, export)
		if err := store.Save(ctx, run); err != nil {
			return Result{}, fmt.Errorf("write export: %w", err)
		}
	}

	if err := PrintTotals(out, res.Leaderboard, cfg.Top); err != nil {
		return Result{}, fmt.Errorf("print totals: %w", err)
	}

	// Step 5: Compare with a running service
	if cfg.CompareURL != "" {
		if err := compare(ctx, cfg, res.Leaderboard); err != nil {
			return Result{}, err
		}
		log.Info(ctx, "service leaderboard matches", logger.String("url", cfg.CompareURL))
	}

	res.Duration = time.Since(started)
	displayFinalStats(ctx, log, res)
	return res, nil
}

func compare(ctx context.Context, cfg *Config, local []types.Entry) error {
	client := NewHTTPClient(cfg.CompareURL, cfg.Timeout)
	if err := client.CheckHealth(ctx); err != nil {
		return err
	}
	limit := len(local)
	if cfg.Top > 0 && cfg.Top < limit {
		limit = cfg.Top
	}
	remote, err := client.Leaderboard(ctx, limit)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := CompareLeaderboards(local, remote); err != nil {
		return fmt.Errorf("leaderboard mismatch: %w", err)
	}
	return nil
}

// PrintTotals writes the top entries as an aligned table. top <= 0 prints all.
func PrintTotals(w io.Writer, entries []types.Entry, top int) error {
	if top <= 0 || top > len(entries) {
		top = len(entries)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tPLAYER\tEXP\tcREP\tJCE\t")
	for _, e := range entries[:top] {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t\n", e.Rank, e.Name, e.EXP, e.REP, e.JCE)
	}
	return tw.Flush()
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, res Result) {
	var perSecond float64
	if res.Duration > 0 {
		perSecond = float64(res.Stats.Fetched) / res.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Any("fetched", res.Stats.Fetched),
		logger.Any("skipped", res.Stats.Skipped),
		logger.Any("duplicates", res.Stats.Duplicates),
		logger.Any("attributed", res.Stats.Attributed),
		logger.Any("actions", res.Stats.Actions),
		logger.Int("players", res.Stats.Players),
		logger.Int("days", res.Stats.Days),
		logger.Any("unresolved", res.Stats.Unresolved),
		logger.Duration("duration", res.Duration),
		logger.Float64("messagesPerSecond", perSecond))
}
