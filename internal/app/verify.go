package service

import (
	"errors"
	"fmt"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// VerifyConservation checks an export for internal consistency: every
// player's totals equal the sum of that player's actions across the history,
// no date repeats, history is newest first and no day lists a player twice.
func VerifyConservation(e model.Export) error {
	const op = "service.VerifyConservation"

	type sums struct{ exp, rep, jce int }
	history := make(map[string]*sums, len(e.Players))
	for _, p := range e.Players {
		history[p.Name] = &sums{}
	}

	var errs []error
	dates := make(map[model.Date]struct{}, len(e.ScoreHistory))
	for i, day := range e.ScoreHistory {
		if _, dup := dates[day.Date]; dup {
			errs = append(errs, fmt.Errorf("date %s appears twice", day.Date))
		}
		dates[day.Date] = struct{}{}
		if i > 0 && !day.Date.Before(e.ScoreHistory[i-1].Date) {
			errs = append(errs, fmt.Errorf("date %s is out of order", day.Date))
		}

		names := make(map[string]struct{}, len(day.Scores))
		for _, score := range day.Scores {
			if _, dup := names[score.Name]; dup {
				errs = append(errs, fmt.Errorf("%s lists %s twice", day.Date, score.Name))
			}
			names[score.Name] = struct{}{}

			s, ok := history[score.Name]
			if !ok {
				continue // unresolved players are not credited
			}
			for _, a := range score.Actions {
				s.exp += a.EXP
				s.rep += a.REP
				s.jce += a.JCE
			}
		}
	}

	for _, p := range e.Players {
		s := history[p.Name]
		if s.exp != p.EXP || s.rep != p.REP || s.jce != p.JCE {
			errs = append(errs, fmt.Errorf("%s totals EXP=%d REP=%d JCE=%d, history sums EXP=%d REP=%d JCE=%d",
				p.Name, p.EXP, p.REP, p.JCE, s.exp, s.rep, s.jce))
		}
	}
	return model.Wrap(op, model.ErrValidation, errors.Join(errs...))
}
