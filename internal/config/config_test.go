package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/scorekeeper/internal/config"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/questbook"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/smartystreets/goconvey/convey"
)

func validConfig() *config.Config {
	cfg := config.New()
	cfg.FixturePath = "testdata/history.json"
	cfg.Channels = []string{"general"}
	return cfg
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, config.LogFormatText)
			convey.So(cfg.HistoryLimit, convey.ShouldEqual, 250)
			convey.So(cfg.ReactionWorkers, convey.ShouldEqual, 4)
			convey.So(cfg.FetchTimeout, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.GameStartDate, convey.ShouldEqual, "2021-09-20")
			convey.So(cfg.RepEmoji, convey.ShouldEqual, scoreboard.DefaultRepEmoji)
			convey.So(cfg.SystemName, convey.ShouldEqual, scoreboard.DefaultSystemName)
			convey.So(cfg.Serve, convey.ShouldBeFalse)
		})

		convey.Convey("Then it replays the general channel", func() {
			convey.So(cfg.Channels, convey.ShouldResemble, []string{scoreboard.DefaultMessageChannel})
		})

		convey.Convey("Then it is not valid until a platform is chosen", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "discord_token and guild_id")
			convey.So(err.Error(), convey.ShouldNotContainSubstring, "channels must list")

			cfg.FixturePath = "history.json"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then clearing the channels is rejected", func() {
			cfg.FixturePath = "history.json"
			cfg.Channels = nil
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "channels must list")
		})
	})
}

func TestConfig_Derived(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := validConfig()
		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.UsesFixture(), convey.ShouldBeTrue)

		convey.Convey("Then the game start parses", func() {
			d, err := cfg.GameStart()
			convey.So(err, convey.ShouldBeNil)
			convey.So(d, convey.ShouldResemble, model.Date{Year: 2021, Month: time.September, Day: 20})
		})

		convey.Convey("Then the timezone resolves", func() {
			cfg.Timezone = "America/New_York"
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "America/New_York")
		})

		convey.Convey("Then rules fall back to the default message channel", func() {
			r := cfg.Rules()
			convey.So(r.MessageChannels, convey.ShouldResemble, []string{scoreboard.DefaultMessageChannel})
			convey.So(r.MessageEXP, convey.ShouldEqual, scoreboard.DefaultMessageEXP)
		})

		convey.Convey("Then configured message channels and points carry into the rules", func() {
			cfg.MessageChannels = []string{"general", "memes"}
			cfg.GiveREPEXP = 3
			r := cfg.Rules()
			convey.So(r.MessageChannels, convey.ShouldResemble, []string{"general", "memes"})
			convey.So(r.GiveREPEXP, convey.ShouldEqual, 3)
		})

		convey.Convey("Then reaction and consensus awards stay off by default", func() {
			r := cfg.Rules()
			convey.So(r.ReactionEXP, convey.ShouldEqual, 0)
			convey.So(r.Consensus.Enabled(), convey.ShouldBeFalse)
			convey.So(r.Consensus.ProposalEXP, convey.ShouldEqual, scoreboard.DefaultProposalEXP)
			convey.So(r.Consensus.VoteEXP, convey.ShouldEqual, scoreboard.DefaultVoteEXP)
		})

		convey.Convey("Then consensus settings carry into the rules", func() {
			cfg.ReactionEXP = 1
			cfg.ConsensusChannel = "consensus"
			cfg.Steward = "Steward"
			r := cfg.Rules()
			convey.So(r.ReactionEXP, convey.ShouldEqual, 1)
			convey.So(r.Consensus.Enabled(), convey.ShouldBeTrue)
			convey.So(r.Consensus.Channel, convey.ShouldEqual, "consensus")
			convey.So(r.Consensus.Steward, convey.ShouldEqual, "Steward")
			convey.So(r.Consensus.MessageEXP, convey.ShouldEqual, scoreboard.DefaultConsensusMessageEXP)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then quests and bounties build a book", func() {
			cfg.Quests = []questbook.Quest{{Title: "Intro", EXP: 10}}
			cfg.Bounties = []questbook.Bounty{{Title: "Logo", Status: questbook.StatusOpen, Winner: questbook.Reward{EXP: 50}}}
			book, err := cfg.Questbook()
			convey.So(err, convey.ShouldBeNil)
			convey.So(book.Empty(), convey.ShouldBeFalse)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := validConfig()

		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"serve without addr", func(c *config.Config) { c.Serve = true; c.Addr = "" }, "addr must not be empty"},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"blank channel", func(c *config.Config) { c.Channels = []string{"general", " "} }, "blank names"},
			{"zero history limit", func(c *config.Config) { c.HistoryLimit = 0 }, "history_limit"},
			{"zero workers", func(c *config.Config) { c.ReactionWorkers = 0 }, "reaction_workers"},
			{"zero timeout", func(c *config.Config) { c.FetchTimeout = 0 }, "fetch_timeout"},
			{"zero leaderboard cap", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }, "max_leaderboard_limit"},
			{"negative redis db", func(c *config.Config) { c.RedisDB = -1 }, "redis_db"},
			{"bad game start", func(c *config.Config) { c.GameStartDate = "20/09/2021" }, "game_start_date"},
			{"unknown timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
			{"empty emoji", func(c *config.Config) { c.RepEmoji = "" }, "emoji"},
			{"negative reaction exp", func(c *config.Config) { c.ReactionEXP = -1 }, "reaction EXP"},
			{"negative vote exp", func(c *config.Config) { c.VoteEXP = -1 }, "consensus EXP"},
			{"consensus without vote emoji", func(c *config.Config) {
				c.ConsensusChannel, c.Steward, c.VoteEmoji = "consensus", "Steward", ""
			}, "consensus emojis"},
			{"bad quest", func(c *config.Config) { c.Quests = []questbook.Quest{{Title: ""}} }, "quest title"},
		}

		for _, tc := range cases {
			tc := tc
			convey.Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with "+tc.want, func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}

		convey.Convey("When live platform credentials are given instead of a fixture", func() {
			cfg.FixturePath = ""
			cfg.DiscordToken = "token"
			cfg.GuildID = "889112771234"

			convey.Convey("Then it is valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.UsesFixture(), convey.ShouldBeFalse)
			})
		})
	})
}
