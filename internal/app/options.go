package service

import (
	"time"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/okian/scorekeeper/pkg/logger"
)

// Default replay configuration.
const (
	DefaultHistoryLimit    = 250
	DefaultReactionWorkers = 4
	DefaultFetchTimeout    = 30 * time.Second
	DefaultDedupeSize      = 50000
)

// DefaultGameStart is the first day messages are eligible for attribution.
var DefaultGameStart = model.Date{Year: 2021, Month: time.September, Day: 20}

// Option applies a configuration option to the Replayer.
type Option func(*Replayer)

// WithScoreboard sets the scoreboard the run attributes into.
func WithScoreboard(sb *scoreboard.Scoreboard) Option {
	return func(r *Replayer) {
		if sb != nil {
			r.board = sb
		}
	}
}

// WithGameStart sets the first eligible day.
func WithGameStart(d model.Date) Option {
	return func(r *Replayer) {
		if !d.IsZero() {
			r.gameStart = d
		}
	}
}

// WithHistoryLimit bounds the messages fetched per channel.
func WithHistoryLimit(n int) Option {
	return func(r *Replayer) {
		if n > 0 {
			r.historyLimit = n
		}
	}
}

// WithReactionWorkers bounds concurrent reacting-user fetches per message.
func WithReactionWorkers(n int) Option {
	return func(r *Replayer) {
		if n > 0 {
			r.reactionWorkers = n
		}
	}
}

// WithFetchTimeout bounds each platform call.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Replayer) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

// WithDedupeSize sets the size of the message-ID cache.
// Zero or less keeps every ID.
func WithDedupeSize(size int) Option {
	return func(r *Replayer) {
		r.dedupeSize = size
	}
}

// WithLogger sets a custom logger for the replayer.
func WithLogger(l logger.Logger) Option {
	return func(r *Replayer) {
		if l != nil {
			r.logger = l
		}
	}
}
