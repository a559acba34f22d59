package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/scorekeeper/internal/replaytool"
	"github.com/okian/scorekeeper/pkg/logger"
)

const replayTimeout = 10 * time.Minute

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := replaytool.ParseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		replaytool.ShowHelp(os.Stdout)
		return 0
	}
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 2
	}

	if err := replaytool.SetupLogging(cfg.LogFile, cfg.Verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, replayTimeout)
	defer cancel()

	if _, err := replaytool.Run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "replay failed", logger.Error(err))
		return 1
	}
	return 0
}
