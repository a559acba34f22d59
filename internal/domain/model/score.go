package model

// PlayerScore is one player's actions within a single day.
type PlayerScore struct {
	PlayerName string
	Actions    []Action
}

// Totals sums the actions of the score.
func (s PlayerScore) Totals() (exp, rep, jce int) {
	for _, a := range s.Actions {
		exp += a.EXP
		rep += a.REP
		jce += a.JCE
	}
	return exp, rep, jce
}

// DailyScore holds at most one PlayerScore per player name for one date.
// It is not safe for concurrent use; callers serialize per date.
type DailyScore struct {
	Date   Date
	scores map[string]*PlayerScore
	order  []string
}

// NewDailyScore returns an empty DailyScore for d.
func NewDailyScore(d Date) *DailyScore {
	return &DailyScore{Date: d, scores: make(map[string]*PlayerScore)}
}

// Append adds a to the player's score, creating the score on first use.
func (d *DailyScore) Append(player string, a Action) {
	s, ok := d.scores[player]
	if !ok {
		s = &PlayerScore{PlayerName: player}
		d.scores[player] = s
		d.order = append(d.order, player)
	}
	s.Actions = append(s.Actions, a)
}

// Score returns a copy of the player's score for the day.
func (d *DailyScore) Score(player string) (PlayerScore, bool) {
	s, ok := d.scores[player]
	if !ok {
		return PlayerScore{}, false
	}
	return copyScore(s), true
}

// Scores returns copies of all scores in first-seen order.
func (d *DailyScore) Scores() []PlayerScore {
	out := make([]PlayerScore, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, copyScore(d.scores[name]))
	}
	return out
}

// Len returns the number of players with a score that day.
func (d *DailyScore) Len() int { return len(d.order) }

func copyScore(s *PlayerScore) PlayerScore {
	actions := make([]Action, len(s.Actions))
	copy(actions, s.Actions)
	return PlayerScore{PlayerName: s.PlayerName, Actions: actions}
}
