package replaytool

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/scorekeeper/internal/adapters/fixture"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/okian/scorekeeper/pkg/logger"
)

const (
	generatedGuild   = "synthetic"
	generatedChannel = "c-general"
	noiseEmoji       = "🎉"
	secondsPerDay    = 24 * 60 * 60
)

// Generate builds a synthetic history on channel. Messages start on start
// and spread over g.Days days. The same seed always yields the same history.
func Generate(ctx context.Context, g Generation, channel string, start model.Date, workers int) (fixture.History, error) {
	if !g.Enabled() {
		return fixture.History{}, fmt.Errorf("generation is disabled")
	}
	if workers < 1 {
		workers = 1
	}

	players := make([]fixture.User, g.Players)
	members := make([]fixture.Member, g.Players)
	for i := range players {
		id := "p" + strconv.Itoa(i+1)
		players[i] = fixture.User{ID: id, Name: fmt.Sprintf("player-%03d", i+1)}
		members[i] = fixture.Member{User: players[i]}
	}

	messages := make([]fixture.Message, g.Messages)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range messages {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			messages[i] = generateMessage(g, i, players, start)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fixture.History{}, fmt.Errorf("context cancelled during generation: %w", err)
	}

	logger.Get().Info(ctx, "generated fixture",
		logger.Int("players", len(players)),
		logger.Int("messages", len(messages)))

	return fixture.History{
		Guild:    generatedGuild,
		Members:  members,
		Channels: []fixture.Channel{{ID: generatedChannel, Name: channel, Kind: "text"}},
		Messages: messages,
	}, nil
}

// generateMessage derives message i from the seed alone, so workers need no
// shared random source.
func generateMessage(g Generation, i int, players []fixture.User, start model.Date) fixture.Message {
	rng := rand.New(rand.NewPCG(g.Seed, uint64(i)))

	authorIdx := rng.IntN(len(players))
	author := players[authorIdx]
	offset := time.Duration(rng.IntN(g.Days*secondsPerDay)) * time.Second

	msg := fixture.Message{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d/%d", g.Seed, i))).String(),
		ChannelID: generatedChannel,
		Author:    &author,
		Content:   fmt.Sprintf("synthetic message %d", i),
		CreatedAt: start.Time().Add(offset),
	}

	if n := min(rng.IntN(g.Reactions+1), len(players)-1); n > 0 {
		reactors := make([]fixture.User, 0, n)
		for _, idx := range rng.Perm(len(players)) {
			if idx == authorIdx {
				continue
			}
			reactors = append(reactors, players[idx])
			if len(reactors) == n {
				break
			}
		}
		msg.Reactions = append(msg.Reactions, fixture.Reaction{Emoji: scoreboard.DefaultRepEmoji, Users: reactors})
	}
	if rng.IntN(4) == 0 {
		msg.Reactions = append(msg.Reactions, fixture.Reaction{
			Emoji: noiseEmoji,
			Users: []fixture.User{players[rng.IntN(len(players))]},
		})
	}
	return msg
}
