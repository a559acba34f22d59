package scoreboard

import (
	"context"
	"sort"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/pkg/logger"
)

// FoldReport summarizes a fold.
type FoldReport struct {
	Players    int      // players written back to the registry
	Days       int      // days scanned
	Actions    int      // actions credited to resolvable players
	Unresolved []string // names with history but no registry entry, sorted
}

// Fold recomputes every player's totals from the full history and writes
// them back to the registry. Totals start from zero on each call, so folding
// an unchanged history twice yields the same result. Scores for names
// absent from the registry are logged and skipped.
func (s *Scoreboard) Fold(ctx context.Context) (FoldReport, error) {
	const op = "scoreboard.Fold"

	seeded := s.players.All()
	totals := make(map[string]*model.Player, len(seeded))
	for _, p := range seeded {
		zero := model.NewPlayer(p.Name)
		totals[p.Name] = &zero
	}

	var (
		report     FoldReport
		unresolved = make(map[string]struct{})
	)
	for _, date := range s.Days() {
		b := s.bucket(date)
		b.mu.Lock()
		scores := b.score.Scores()
		b.mu.Unlock()
		report.Days++

		for _, ps := range scores {
			p, ok := totals[ps.PlayerName]
			if !ok {
				if _, seen := unresolved[ps.PlayerName]; !seen {
					unresolved[ps.PlayerName] = struct{}{}
					s.log.Warn(ctx, "could not find player",
						logger.String("player", ps.PlayerName),
						logger.String("date", date.String()),
						logger.Error(model.ErrUnresolvedPlayer))
				}
				continue
			}
			for _, a := range ps.Actions {
				if err := p.Apply(a); err != nil {
					return report, model.Wrap(op, model.ErrValidation, err)
				}
				report.Actions++
			}
		}
	}

	for _, p := range seeded {
		if err := s.players.Upsert(*totals[p.Name]); err != nil {
			return report, model.Wrap(op, model.ErrNotFound, err)
		}
		report.Players++
	}

	for name := range unresolved {
		report.Unresolved = append(report.Unresolved, name)
	}
	sort.Strings(report.Unresolved)

	s.log.Info(ctx, "fold complete",
		logger.Int("players", report.Players),
		logger.Int("days", report.Days),
		logger.Int("actions", report.Actions),
		logger.Int("unresolved", len(report.Unresolved)))
	return report, nil
}
