package replaytool

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/okian/scorekeeper/pkg/logger"
)

// ParseFlags builds a Config from command-line arguments.
// It returns flag.ErrHelp when -help is given.
func ParseFlags(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	var channels string
	var help bool

	fs := flag.NewFlagSet("replay-fixture", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.FixturePath, "fixture", "", "Fixture file to replay")
	fs.StringVar(&channels, "channels", DefaultChannel, "Comma-separated channels to replay")
	fs.StringVar(&cfg.GameStart, "game-start", DefaultGameStart, "First eligible day (YYYY-MM-DD)")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", 0, "Messages per channel (0 = all)")
	fs.StringVar(&cfg.OutputPath, "output", "", "Write the export to this file")
	fs.IntVar(&cfg.Top, "top", DefaultTop, "Players printed in the totals table")
	fs.IntVar(&cfg.Workers, "workers", DefaultWorkers, "Concurrent workers")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Per-call timeout")
	fs.StringVar(&cfg.CompareURL, "compare", "", "Base URL of a running service to compare against")
	fs.StringVar(&cfg.LogFile, "log", "", "Log file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	fs.IntVar(&cfg.Generate.Messages, "generate", 0, "Write a synthetic fixture with this many messages first")
	fs.IntVar(&cfg.Generate.Players, "players", 20, "Players in a synthetic fixture")
	fs.IntVar(&cfg.Generate.Days, "days", 7, "Days spanned by a synthetic fixture")
	fs.IntVar(&cfg.Generate.Reactions, "reactions", 3, "Maximum REP reactions per synthetic message")
	fs.Uint64Var(&cfg.Generate.Seed, "seed", 1, "Seed for synthetic fixtures")
	fs.BoolVar(&help, "help", false, "Show this help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if help {
		return nil, flag.ErrHelp
	}

	for _, c := range strings.Split(channels, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cfg.Channels = append(cfg.Channels, c)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// SetupLogging initializes the process logger, optionally mirroring to a file.
func SetupLogging(logFile string, verbose bool) error {
	var opts []logger.InitOption
	if logFile != "" {
		opts = append(opts, logger.WithFile(logFile))
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Scorekeeper Fixture Replay
==========================

Replays a recorded community history offline, checks that every player's
totals equal their action history and prints the leaderboard.

Usage:
  go run ./cmd/replay-fixture -fixture history.json [options]

Options:
  -fixture string
        Fixture file to replay (required)
  -channels string
        Comma-separated channels to replay (default "general")
  -game-start string
        First eligible day (default "2021-09-20")
  -history-limit int
        Messages per channel, 0 for all (default 0)
  -output string
        Write the export JSON to this file
  -top int
        Players printed in the totals table (default 10)
  -workers int
        Concurrent workers (default 4)
  -timeout duration
        Per-call timeout (default 30s)
  -compare string
        Base URL of a running scorekeeper to compare the leaderboard with
  -generate int
        Write a synthetic fixture with this many messages before replaying
  -players, -days, -reactions, -seed
        Shape of the synthetic fixture
  -log string
        Log file
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Replay a recorded history and write the export
  go run ./cmd/replay-fixture -fixture testdata/history.json -output scoreboard.json

  # Generate and replay 5000 synthetic messages
  go run ./cmd/replay-fixture -fixture /tmp/synthetic.json -generate 5000 -players 50

  # Compare with a running service
  go run ./cmd/replay-fixture -fixture history.json -compare http://localhost:9080
`)
}
