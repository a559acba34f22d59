package scoreboard

import (
	"time"

	"github.com/okian/scorekeeper/internal/domain/questbook"
	"github.com/okian/scorekeeper/pkg/logger"
)

// Option configures a Scoreboard.
type Option func(*Scoreboard)

// WithRules replaces the attribution rules. Invalid rules are ignored.
func WithRules(r Rules) Option {
	return func(s *Scoreboard) {
		if r.Validate() == nil {
			s.rules = r
		}
	}
}

// WithLocation sets the timezone used to bucket posts by calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Scoreboard) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithQuestbook enables quest and bounty awards.
func WithQuestbook(b *questbook.Book) Option {
	return func(s *Scoreboard) { s.book = b }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scoreboard) {
		if l != nil {
			s.log = l
		}
	}
}
