package replaytool

import (
	"fmt"
	"time"

	"github.com/okian/scorekeeper/internal/domain/scoreboard"
)

// Default tool settings.
const (
	DefaultTop       = 10
	DefaultWorkers   = 4
	DefaultTimeout   = 30 * time.Second
	DefaultChannel   = scoreboard.DefaultMessageChannel
	DefaultGameStart = "2021-09-20"
)

// Config holds configuration for one replay-fixture invocation.
type Config struct {
	FixturePath  string        // fixture to replay, or to write when generating
	Channels     []string      // channels replayed in order
	GameStart    string        // first eligible day, YYYY-MM-DD
	HistoryLimit int           // messages fetched per channel; 0 replays the whole fixture
	OutputPath   string        // optional export file
	Top          int           // players printed in the totals table
	Workers      int           // concurrent reaction fetches and generator workers
	Timeout      time.Duration // per platform call and per HTTP request
	CompareURL   string        // optional running service to compare against
	LogFile      string        // optional log file
	Verbose      bool

	Generate Generation
}

// Generation describes a synthetic fixture. Zero Messages disables it.
type Generation struct {
	Players   int
	Messages  int
	Days      int
	Reactions int // maximum REP reactions per message
	Seed      uint64
}

// Enabled reports whether a synthetic fixture is requested.
func (g Generation) Enabled() bool { return g.Messages > 0 }

// Validate reports unusable settings.
func (c *Config) Validate() error {
	switch {
	case c.FixturePath == "":
		return fmt.Errorf("fixture path is required")
	case len(c.Channels) == 0:
		return fmt.Errorf("at least one channel is required")
	case c.Top < 0:
		return fmt.Errorf("top must be non-negative, got %d", c.Top)
	case c.Generate.Enabled() && c.Generate.Players < 2:
		return fmt.Errorf("generation needs at least 2 players, got %d", c.Generate.Players)
	case c.Generate.Enabled() && c.Generate.Days < 1:
		return fmt.Errorf("generation needs at least 1 day, got %d", c.Generate.Days)
	case c.Generate.Reactions < 0:
		return fmt.Errorf("reactions must be non-negative, got %d", c.Generate.Reactions)
	}
	return nil
}
