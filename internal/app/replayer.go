// Package service runs the history replay: it seeds players from community
// membership, replays channel history into the scoreboard and folds the
// result into player totals.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorekeeper/internal/domain/dedupe"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/scoreboard"
	"github.com/okian/scorekeeper/pkg/logger"
	"github.com/okian/scorekeeper/pkg/metrics"
)

// Skip reasons reported in logs and metrics.
const (
	skipPreStart      = "pre_start"
	skipMissingID     = "missing_id"
	skipMissingAuthor = "missing_author"
	skipWebhook       = "webhook"
	skipSystem        = "system"
	skipBot           = "bot"
	skipNonMember     = "non_member"
	skipChannelKind   = "channel_kind"
	skipRejected      = "rejected"
)

// Stats is a point-in-time view of a run.
type Stats struct {
	State      State     `json:"state"`
	Channels   []string  `json:"channels"`
	Fetched    int64     `json:"messages_fetched"`
	Skipped    int64     `json:"messages_skipped"`
	Duplicates int64     `json:"messages_duplicate"`
	Attributed int64     `json:"messages_attributed"`
	Actions    int64     `json:"actions"`
	Players    int       `json:"players"`
	Days       int       `json:"days"`
	Unresolved []string  `json:"unresolved,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Replayer drives one all-or-nothing replay run.
type Replayer struct {
	mu         sync.RWMutex
	state      State
	err        error
	channels   []string
	report     scoreboard.FoldReport
	startedAt  time.Time
	finishedAt time.Time

	platform Platform
	board    *scoreboard.Scoreboard
	deduper  dedupe.Deduper

	// member directory used to resolve authors, reactors and mentions
	byID   map[string]model.Member
	byName map[string]model.Member

	// Configuration
	gameStart       model.Date
	historyLimit    int
	reactionWorkers int
	fetchTimeout    time.Duration
	dedupeSize      int

	fetched, skipped, duplicates, attributed, actions atomic.Int64

	logger logger.Logger
}

// New constructs a Replayer reading from platform.
func New(platform Platform, opts ...Option) *Replayer {
	r := &Replayer{
		platform:        platform,
		gameStart:       DefaultGameStart,
		historyLimit:    DefaultHistoryLimit,
		reactionWorkers: DefaultReactionWorkers,
		fetchTimeout:    DefaultFetchTimeout,
		dedupeSize:      DefaultDedupeSize,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.board == nil {
		r.board = scoreboard.New(scoreboard.WithLogger(r.logger))
	}
	r.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(r.dedupeSize))
	return r
}

// Scoreboard returns the scoreboard the run attributes into.
func (r *Replayer) Scoreboard() *scoreboard.Scoreboard { return r.board }

// State returns the current run state.
func (r *Replayer) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Err returns the error that failed the run, if any.
func (r *Replayer) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// transition moves the run to next when it is in one of from.
func (r *Replayer) transition(op string, next State, from ...State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range from {
		if r.state == s {
			r.state = next
			return nil
		}
	}
	return model.Wrap(op, model.ErrStateTransition, fmt.Errorf("cannot move from %s to %s", r.state, next))
}

// fail marks the run Failed and returns err.
func (r *Replayer) fail(ctx context.Context, err error) error {
	r.mu.Lock()
	r.state = StateFailed
	r.err = err
	r.finishedAt = time.Now()
	r.mu.Unlock()

	r.logger.Error(ctx, "replay run failed", logger.Error(err))
	return err
}

// call runs one platform call under the fetch timeout and tags its failure
// as a collaborator error.
func (r *Replayer) call(ctx context.Context, op string, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		metrics.RecordCollaboratorError(op)
		return model.Wrap("service."+op, model.ErrCollaborator, err)
	}
	return nil
}

// Seed lists community members and registers every non-bot, non-owner
// member as a player.
func (r *Replayer) Seed(ctx context.Context) error {
	if err := r.transition("service.Seed", StateSeeding, StateIdle); err != nil {
		return err
	}
	r.mu.Lock()
	r.startedAt = time.Now()
	r.mu.Unlock()

	var members []model.Member
	if err := r.call(ctx, "members", func(ctx context.Context) error {
		var err error
		members, err = r.platform.Members(ctx)
		return err
	}); err != nil {
		return r.fail(ctx, err)
	}

	r.byID = make(map[string]model.Member, len(members))
	r.byName = make(map[string]model.Member, len(members))
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.IsBot {
			continue
		}
		if m.ID != "" {
			r.byID[m.ID] = m
		}
		r.byName[m.Name] = m
		if m.IsOwner {
			continue
		}
		names = append(names, m.PlayerName())
	}
	r.board.Seed(names...)

	metrics.UpdatePlayers(len(r.board.Players()))
	r.logger.Info(ctx, "players seeded",
		logger.Int("members", len(members)),
		logger.Int("players", len(names)))
	return nil
}

// member resolves a platform user to a non-bot community member.
func (r *Replayer) member(u model.User) (model.Member, bool) {
	if u.IsBot {
		return model.Member{}, false
	}
	if m, ok := r.byID[u.ID]; ok && u.ID != "" {
		return m, true
	}
	m, ok := r.byName[u.Name]
	return m, ok
}

// classify returns the reason msg is not eligible, or "" when it is.
func (r *Replayer) classify(msg model.Message) string {
	switch {
	case r.board.DateOf(msg.CreatedAt).Before(r.gameStart):
		return skipPreStart
	case msg.ID == "":
		return skipMissingID
	case msg.Author == nil:
		return skipMissingAuthor
	case msg.Webhook:
		return skipWebhook
	case msg.System:
		return skipSystem
	case msg.Author.IsBot:
		return skipBot
	case msg.ChannelKind != model.ChannelText:
		return skipChannelKind
	}
	if _, ok := r.member(*msg.Author); !ok {
		return skipNonMember
	}
	return ""
}

// Replay attributes the history of the named text channel. It may be called
// once per configured channel before Fold.
func (r *Replayer) Replay(ctx context.Context, channelName string) error {
	if err := r.transition("service.Replay", StateReplaying, StateSeeding, StateReplaying); err != nil {
		return err
	}
	r.mu.Lock()
	r.channels = append(r.channels, channelName)
	r.mu.Unlock()

	channel, err := r.findChannel(ctx, channelName)
	if err != nil {
		return r.fail(ctx, err)
	}

	var history []model.Message
	if err := r.call(ctx, "history", func(ctx context.Context) error {
		var err error
		history, err = r.platform.History(ctx, channel, r.historyLimit)
		return err
	}); err != nil {
		return r.fail(ctx, err)
	}

	// Oldest first so streaks and per-day order follow the conversation.
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	for _, msg := range history {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, model.Wrap("service.Replay", model.ErrCollaborator, err))
		}
		if msg.ChannelName == "" {
			msg.ChannelName = channel.Name
		}
		if err := r.replayMessage(ctx, channel, msg); err != nil {
			return r.fail(ctx, err)
		}
	}

	r.logger.Info(ctx, "channel replayed",
		logger.String("channel", channelName),
		logger.Int("messages", len(history)),
		logger.Int("days", len(r.board.Days())))
	return nil
}

func (r *Replayer) findChannel(ctx context.Context, name string) (model.Channel, error) {
	var channels []model.Channel
	if err := r.call(ctx, "channels", func(ctx context.Context) error {
		var err error
		channels, err = r.platform.TextChannels(ctx)
		return err
	}); err != nil {
		return model.Channel{}, err
	}
	for _, c := range channels {
		if c.Name == name && c.Kind == model.ChannelText {
			return c, nil
		}
	}
	return model.Channel{}, model.Wrap("service.Replay", model.ErrNotFound, fmt.Errorf("text channel %q", name))
}

// replayMessage attributes one message. Only collaborator failures are
// returned; ineligible or rejected messages are counted and skipped.
func (r *Replayer) replayMessage(ctx context.Context, channel model.Channel, msg model.Message) error {
	r.fetched.Add(1)
	metrics.RecordMessageFetched()

	if reason := r.classify(msg); reason != "" {
		r.skip(ctx, msg, reason)
		return nil
	}
	if r.deduper.SeenAndRecord(ctx, msg.ID) {
		r.duplicates.Add(1)
		metrics.RecordMessageDuplicate()
		return nil
	}

	reactions, err := r.fetchReactions(ctx, channel, msg)
	if err != nil {
		r.deduper.Unrecord(ctx, msg.ID)
		return err
	}

	author, _ := r.member(*msg.Author)
	post := model.Post{
		ID:        msg.ID,
		Author:    author.PlayerName(),
		Channel:   msg.ChannelName,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		Reactions: reactions,
	}
	for _, u := range msg.Mentions {
		if m, ok := r.member(u); ok {
			post.Mentions = append(post.Mentions, m.PlayerName())
		}
	}

	awards, err := r.board.Record(ctx, post)
	if err != nil {
		r.skip(ctx, msg, skipRejected)
		return nil
	}
	r.attributed.Add(1)
	r.actions.Add(int64(len(awards)))
	metrics.RecordMessageAttributed()
	for _, a := range awards {
		metrics.RecordAction(a.Action.Kind.String())
	}
	return nil
}

func (r *Replayer) skip(ctx context.Context, msg model.Message, reason string) {
	r.skipped.Add(1)
	metrics.RecordMessageSkipped(reason)
	r.logger.Debug(ctx, "message skipped",
		logger.String("message_id", msg.ID),
		logger.String("reason", reason))
}

// fetchReactions resolves the reactors of every reaction the rules attribute
// with a bounded fan-out. Results keep reaction order regardless of completion order.
func (r *Replayer) fetchReactions(ctx context.Context, channel model.Channel, msg model.Message) ([]model.ReactionEvent, error) {
	rules := r.board.Rules()
	var qualifying []model.Reaction
	for _, re := range msg.Reactions {
		if rules.Fetches(msg.ChannelName, re.Emoji) {
			qualifying = append(qualifying, re)
		}
	}
	if len(qualifying) == 0 {
		return nil, nil
	}

	users := make([][]model.User, len(qualifying))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.reactionWorkers)
	for i, re := range qualifying {
		g.Go(func() error {
			start := time.Now()
			err := r.call(gctx, "reactions", func(ctx context.Context) error {
				var err error
				users[i], err = r.platform.ReactingUsers(ctx, channel, msg.ID, re)
				return err
			})
			metrics.RecordReactionFetchLatency(float64(time.Since(start).Microseconds()) / 1000)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]model.ReactionEvent, 0, len(qualifying))
	for i, re := range qualifying {
		ev := model.ReactionEvent{Emoji: re.Emoji}
		for _, u := range users[i] {
			if m, ok := r.member(u); ok {
				ev.Reactors = append(ev.Reactors, m.PlayerName())
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Fold folds the replayed history into player totals and completes the run.
func (r *Replayer) Fold(ctx context.Context) error {
	if err := r.transition("service.Fold", StateFolding, StateReplaying); err != nil {
		return err
	}

	report, err := r.board.Fold(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	metrics.RecordFoldUnresolved(len(report.Unresolved))
	metrics.UpdatePlayers(report.Players)
	metrics.UpdateDays(report.Days)

	r.mu.Lock()
	r.report = report
	r.state = StateDone
	r.finishedAt = time.Now()
	r.mu.Unlock()
	return nil
}

// Export returns the scoreboard aggregate of a completed run.
func (r *Replayer) Export() (model.Export, error) {
	if s := r.State(); s != StateDone {
		return model.Export{}, model.Wrap("service.Export", model.ErrStateTransition, fmt.Errorf("run is %s, not done", s))
	}
	return r.board.Snapshot(), nil
}

// Run executes the full pipeline over channels and returns the export.
func (r *Replayer) Run(ctx context.Context, channels ...string) (model.Export, error) {
	start := time.Now()
	export, err := r.run(ctx, channels)
	outcome := StateDone.String()
	if err != nil {
		outcome = StateFailed.String()
	}
	metrics.RecordRun(outcome, time.Since(start).Seconds())
	return export, err
}

func (r *Replayer) run(ctx context.Context, channels []string) (model.Export, error) {
	if len(channels) == 0 {
		return model.Export{}, model.Wrap("service.Run", model.ErrValidation, fmt.Errorf("no channels to replay"))
	}
	if err := r.Seed(ctx); err != nil {
		return model.Export{}, err
	}
	for _, c := range channels {
		if err := r.Replay(ctx, c); err != nil {
			return model.Export{}, err
		}
	}
	if err := r.Fold(ctx); err != nil {
		return model.Export{}, err
	}
	export, err := r.Export()
	if err != nil {
		return model.Export{}, err
	}

	s := r.Stats()
	r.logger.Info(ctx, "replay run complete",
		logger.Any("channels", channels),
		logger.Int("players", s.Players),
		logger.Int("days", s.Days),
		logger.Int("attributed", int(s.Attributed)),
		logger.Int("skipped", int(s.Skipped)),
		logger.Duration("took", s.FinishedAt.Sub(s.StartedAt)))
	return export, nil
}

// Stats returns run statistics for monitoring.
func (r *Replayer) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		State:      r.state,
		Channels:   append([]string(nil), r.channels...),
		Fetched:    r.fetched.Load(),
		Skipped:    r.skipped.Load(),
		Duplicates: r.duplicates.Load(),
		Attributed: r.attributed.Load(),
		Actions:    r.actions.Load(),
		Players:    len(r.board.Players()),
		Days:       len(r.board.Days()),
		Unresolved: append([]string(nil), r.report.Unresolved...),
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}
