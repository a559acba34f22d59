// Package config defines the scorekeeper configuration and its loading.
//
// Values are layered defaults -> optional YAML file -> SCOREKEEPER_* env vars.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezone must resolve on hosts without zoneinfo

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/questbook"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// LogFile, when set, sends logs to a rotating file instead of stdout.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// Serve keeps the process up after the run to serve the read API.
	Serve bool `koanf:"serve"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// GuildID and DiscordToken select the live chat platform.
	GuildID      string `koanf:"guild_id"`
	DiscordToken string `koanf:"discord_token"`
	// FixturePath replays a recorded history file instead of the live platform.
	FixturePath string `koanf:"fixture_path"`

	// Channels are replayed in order.
	Channels []string `koanf:"channels"`
	// MessageChannels earn MESSAGE actions. Empty means the scoreboard default.
	MessageChannels []string `koanf:"message_channels"`
	// GameStartDate is the first eligible day, YYYY-MM-DD.
	GameStartDate string `koanf:"game_start_date"`
	// Timezone is the IANA zone that defines calendar days.
	Timezone string `koanf:"timezone"`

	HistoryLimit    int           `koanf:"history_limit"`
	ReactionWorkers int           `koanf:"reaction_workers"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	DedupeSize      int           `koanf:"dedupe_size"`

	// Point values and matching rules.
	MessageEXP int    `koanf:"message_exp"`
	GiveREPEXP int    `koanf:"give_rep_exp"`
	ReceiveREP int    `koanf:"receive_rep"`
	RepEmoji   string `koanf:"rep_emoji"`
	SystemName string `koanf:"system_name"`
	// ReactionEXP pays each reacting player once per post. 0 disables.
	ReactionEXP int `koanf:"reaction_exp"`

	// Consensus awards are off until both ConsensusChannel and Steward are set.
	ConsensusChannel    string `koanf:"consensus_channel"`
	Steward             string `koanf:"steward"`
	ProposalEmoji       string `koanf:"proposal_emoji"`
	VoteEmoji           string `koanf:"vote_emoji"`
	ProposalEXP         int    `koanf:"proposal_exp"`
	VoteEXP             int    `koanf:"vote_exp"`
	ConsensusMessageEXP int    `koanf:"consensus_message_exp"`

	// Persistence targets. Each one set is written after a successful run.
	OutputPath    string `koanf:"output_path"`
	PostgresDSN   string `koanf:"postgres_dsn"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	Quests   []questbook.Quest  `koanf:"quests"`
	Bounties []questbook.Bounty `koanf:"bounties"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           LogFormatText,
		Addr:                ":9080",
		MaxLeaderboardLimit: 100,
		GameStartDate:       "2021-09-20",
		Timezone:            "UTC",
		Channels:            []string{scoreboard.DefaultMessageChannel},
		HistoryLimit:        250,
		ReactionWorkers:     4,
		FetchTimeout:        30 * time.Second,
		DedupeSize:          50_000,
		MessageEXP:          scoreboard.DefaultMessageEXP,
		GiveREPEXP:          scoreboard.DefaultGiveREPEXP,
		ReceiveREP:          scoreboard.DefaultReceiveREP,
		RepEmoji:            scoreboard.DefaultRepEmoji,
		SystemName:          scoreboard.DefaultSystemName,
		ProposalEmoji:       scoreboard.DefaultProposalEmoji,
		VoteEmoji:           scoreboard.DefaultVoteEmoji,
		ProposalEXP:         scoreboard.DefaultProposalEXP,
		VoteEXP:             scoreboard.DefaultVoteEXP,
		ConsensusMessageEXP: scoreboard.DefaultConsensusMessageEXP,
		OutputPath:          "scoreboard.json",
	}
}

// GameStart parses GameStartDate.
func (c *Config) GameStart() (model.Date, error) {
	d, err := model.ParseDate(c.GameStartDate)
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: game_start_date %q: %w", ErrInvalidConfig, c.GameStartDate, err)
	}
	return d, nil
}

// Location loads Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Rules builds the scoreboard rules.
func (c *Config) Rules() scoreboard.Rules {
	r := scoreboard.DefaultRules()
	if len(c.MessageChannels) > 0 {
		r.MessageChannels = append([]string(nil), c.MessageChannels...)
	}
	r.MessageEXP = c.MessageEXP
	r.GiveREPEXP = c.GiveREPEXP
	r.ReceiveREP = c.ReceiveREP
	r.RepEmoji = c.RepEmoji
	r.SystemName = c.SystemName
	r.ReactionEXP = c.ReactionEXP
	r.Consensus = scoreboard.Consensus{
		Channel:       c.ConsensusChannel,
		Steward:       c.Steward,
		ProposalEmoji: c.ProposalEmoji,
		VoteEmoji:     c.VoteEmoji,
		ProposalEXP:   c.ProposalEXP,
		VoteEXP:       c.VoteEXP,
		MessageEXP:    c.ConsensusMessageEXP,
	}
	return r
}

// Questbook builds the quest and bounty book.
func (c *Config) Questbook() (*questbook.Book, error) {
	b, err := questbook.New(c.Quests, c.Bounties)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return b, nil
}

// UsesFixture reports whether the run replays a fixture file.
func (c *Config) UsesFixture() bool { return c.FixturePath != "" }

// Validate checks the loaded values. Every problem is reported at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Serve && strings.TrimSpace(c.Addr) == "" {
		add("addr must not be empty when serve is set")
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		add("log_format must be %q or %q", LogFormatText, LogFormatJSON)
	}
	if !c.UsesFixture() && (c.DiscordToken == "" || c.GuildID == "") {
		add("discord_token and guild_id are required unless fixture_path is set")
	}
	if len(c.Channels) == 0 {
		add("channels must list at least one channel")
	}
	for _, ch := range c.Channels {
		if strings.TrimSpace(ch) == "" {
			add("channels must not contain blank names")
			break
		}
	}
	if c.HistoryLimit < 1 {
		add("history_limit must be positive")
	}
	if c.ReactionWorkers < 1 {
		add("reaction_workers must be positive")
	}
	if c.FetchTimeout <= 0 {
		add("fetch_timeout must be positive")
	}
	if c.MaxLeaderboardLimit < 1 {
		add("max_leaderboard_limit must be positive")
	}
	if c.RedisDB < 0 {
		add("redis_db must not be negative")
	}
	if err := c.Rules().Validate(); err != nil {
		add("%v", err)
	}
	if _, err := c.GameStart(); err != nil {
		add("%v", err)
	}
	if _, err := c.Location(); err != nil {
		add("%v", err)
	}
	if _, err := c.Questbook(); err != nil {
		add("%v", err)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
