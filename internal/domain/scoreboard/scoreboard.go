// Package scoreboard attributes posts to per-day player ledgers and folds
// the ledgers into player totals.
package scoreboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/questbook"
	"github.com/okian/scorekeeper/internal/domain/registry"
	"github.com/okian/scorekeeper/pkg/logger"
)

// Award is one action granted to one player on one day.
type Award struct {
	Player string
	Date   model.Date
	Action model.Action
}

// day is a history bucket. Its mutex serializes every mutation of the score.
type day struct {
	mu    sync.Mutex
	score *model.DailyScore
}

// Scoreboard owns the player registry and the date-keyed history of one run.
type Scoreboard struct {
	rules Rules
	loc   *time.Location
	book  *questbook.Book
	log   logger.Logger

	players *registry.Registry

	mu      sync.RWMutex
	history map[model.Date]*day
}

// New returns an empty Scoreboard.
func New(opts ...Option) *Scoreboard {
	s := &Scoreboard{
		rules:   DefaultRules(),
		loc:     time.UTC,
		log:     logger.Nop(),
		players: registry.New(),
		history: make(map[model.Date]*day),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the attribution rules in effect.
func (s *Scoreboard) Rules() Rules { return s.rules }

// Seed registers players. Only seeded names are credited by Fold.
func (s *Scoreboard) Seed(names ...string) { s.players.Seed(names...) }

// Player returns the registry entry for name.
func (s *Scoreboard) Player(name string) (model.Player, bool) { return s.players.Lookup(name) }

// Players returns every registered player in seed order.
func (s *Scoreboard) Players() []model.Player { return s.players.All() }

// DateOf returns the bucket date of t.
func (s *Scoreboard) DateOf(t time.Time) model.Date {
	return model.DateOf(t.In(s.loc))
}

// bucket returns the day for d, inserting an empty one when missing.
func (s *Scoreboard) bucket(d model.Date) *day {
	s.mu.RLock()
	b, ok := s.history[d]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.history[d]; ok {
		return b
	}
	b = &day{score: model.NewDailyScore(d)}
	s.history[d] = b
	return b
}

// DayFor returns the day keyed d, creating an empty one when missing.
func (s *Scoreboard) DayFor(d model.Date) model.DayView {
	b := s.bucket(d)
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.ViewOfDay(b.score)
}

// Day returns the day keyed d without creating it.
func (s *Scoreboard) Day(d model.Date) (model.DayView, bool) {
	s.mu.RLock()
	b, ok := s.history[d]
	s.mu.RUnlock()
	if !ok {
		return model.DayView{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.ViewOfDay(b.score), true
}

// Days returns the recorded dates, oldest first.
func (s *Scoreboard) Days() []model.Date {
	s.mu.RLock()
	out := make([]model.Date, 0, len(s.history))
	for d := range s.history {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Record attributes one validated post and appends the resulting actions to
// the post's day. All appends for the post happen under that day's lock.
func (s *Scoreboard) Record(ctx context.Context, post model.Post) ([]Award, error) {
	date := s.DateOf(post.CreatedAt)

	awards, err := s.attribute(post, date)
	if err != nil {
		s.log.Warn(ctx, "post rejected",
			logger.String("message_id", post.ID),
			logger.String("author", post.Author),
			logger.Error(err))
		return nil, err
	}

	b := s.bucket(date)
	b.mu.Lock()
	for _, a := range awards {
		b.score.Append(a.Player, a.Action)
	}
	b.mu.Unlock()

	s.log.Debug(ctx, "post attributed",
		logger.String("message_id", post.ID),
		logger.String("date", date.String()),
		logger.Int("actions", len(awards)))
	return awards, nil
}

// Snapshot projects the scoreboard into its exported form: players in seed
// order, history newest first.
func (s *Scoreboard) Snapshot() model.Export {
	players := s.players.All()
	out := model.Export{
		Players:      make([]model.PlayerView, 0, len(players)),
		ScoreHistory: []model.DayView{},
	}
	for _, p := range players {
		out.Players = append(out.Players, model.ViewOfPlayer(p))
	}

	dates := s.Days()
	for i := len(dates) - 1; i >= 0; i-- {
		if v, ok := s.Day(dates[i]); ok {
			out.ScoreHistory = append(out.ScoreHistory, v)
		}
	}
	return out
}
