// Package questbook turns quest and bounty definitions into point awards:
// channel quests, daily quests with consecutive-day streaks, mention quests
// and bounty payouts.
package questbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// Bounty statuses.
const (
	StatusOpen      = "open"
	StatusFulfilled = "fulfilled"
)

// Reward is the payout of a bounty tier.
type Reward struct {
	EXP       int  `koanf:"exp" json:"exp"`
	JCE       int  `koanf:"jce" json:"jce"`
	OpenToREP bool `koanf:"open_to_rep" json:"open_to_rep"`
}

// Quest defines a repeatable task. A quest pays either a fixed EXP/JCE or,
// when Daily is set, EXP keyed by the responder's consecutive-day streak.
type Quest struct {
	Title   string         `koanf:"title" json:"title"`
	Channel string         `koanf:"channel" json:"channel"` // defaults to Title
	EXP     int            `koanf:"exp" json:"exp"`
	JCE     int            `koanf:"jce" json:"jce"`
	Daily   map[string]int `koanf:"daily" json:"daily"` // "1": 5, "2": 10, ...
}

// Bounty defines a one-off task paid out to members mentioned in its channel.
type Bounty struct {
	Title         string  `koanf:"title" json:"title"`
	Channel       string  `koanf:"channel" json:"channel"` // defaults to Title
	Status        string  `koanf:"status" json:"status"`
	Winner        Reward  `koanf:"winner" json:"winner"`
	Participation *Reward `koanf:"participation" json:"participation,omitempty"`
}

func (q Quest) channel() string {
	if q.Channel != "" {
		return q.Channel
	}
	return q.Title
}

func (b Bounty) channel() string {
	if b.Channel != "" {
		return b.Channel
	}
	return b.Title
}

// dailyRewards parses the streak table into day -> EXP.
func (q Quest) dailyRewards() (map[int]int, error) {
	rewards := make(map[int]int, len(q.Daily))
	for key, exp := range q.Daily {
		day, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || day < 1 {
			return nil, fmt.Errorf("%w: quest %q: streak day %q must be a positive integer", ErrInvalidDefinition, q.Title, key)
		}
		if exp < 0 {
			return nil, fmt.Errorf("%w: quest %q: day %d EXP must not be negative", ErrInvalidDefinition, q.Title, day)
		}
		rewards[day] = exp
	}
	return rewards, nil
}

func (q Quest) validate() error {
	switch {
	case strings.TrimSpace(q.Title) == "":
		return fmt.Errorf("%w: quest title is required", ErrInvalidDefinition)
	case q.EXP < 0:
		return fmt.Errorf("%w: quest %q: EXP must not be negative", ErrInvalidDefinition, q.Title)
	case q.EXP == 0 && len(q.Daily) == 0:
		return fmt.Errorf("%w: quest %q: needs exp or daily rewards", ErrInvalidDefinition, q.Title)
	}
	return nil
}

func (b Bounty) validate() error {
	switch {
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("%w: bounty title is required", ErrInvalidDefinition)
	case b.Status != StatusOpen && b.Status != StatusFulfilled:
		return fmt.Errorf("%w: bounty %q: status must be %q or %q", ErrInvalidDefinition, b.Title, StatusOpen, StatusFulfilled)
	case b.Winner.EXP < 0:
		return fmt.Errorf("%w: bounty %q: winner EXP must not be negative", ErrInvalidDefinition, b.Title)
	case b.Participation != nil && b.Participation.EXP < 0:
		return fmt.Errorf("%w: bounty %q: participation EXP must not be negative", ErrInvalidDefinition, b.Title)
	}
	return nil
}

// asValidation tags definition errors as model validation errors.
func asValidation(op string, err error) error {
	return model.Wrap(op, model.ErrValidation, err)
}
