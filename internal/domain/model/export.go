package model

// Export is the serializable aggregate handed to persistence.
// ScoreHistory is sorted by date, newest first.
type Export struct {
	Players      []PlayerView `json:"players"`
	ScoreHistory []DayView    `json:"scoreHistory"`
}

// PlayerView is the exported form of a Player.
type PlayerView struct {
	Name string `json:"name"`
	EXP  int    `json:"EXP"`
	REP  int    `json:"cREP"`
	JCE  int    `json:"JCE"`
}

// DayView is the exported form of a DailyScore.
type DayView struct {
	Date   Date        `json:"date"`
	Scores []ScoreView `json:"scores"`
}

// ScoreView is the exported form of a PlayerScore.
type ScoreView struct {
	Name    string       `json:"name"`
	Actions []ActionView `json:"actions"`
}

// ActionView is the exported form of an Action.
type ActionView struct {
	Type        ActionKind `json:"type"`
	Description string     `json:"description"`
	EXP         int        `json:"EXP"`
	REP         int        `json:"REP"`
	JCE         int        `json:"JCE"`
}

// ViewOfPlayer converts a Player.
func ViewOfPlayer(p Player) PlayerView {
	return PlayerView{Name: p.Name, EXP: p.EXP, REP: p.REP, JCE: p.JCE}
}

// ViewOfDay converts a DailyScore.
func ViewOfDay(d *DailyScore) DayView {
	scores := d.Scores()
	view := DayView{Date: d.Date, Scores: make([]ScoreView, 0, len(scores))}
	for _, s := range scores {
		sv := ScoreView{Name: s.PlayerName, Actions: make([]ActionView, 0, len(s.Actions))}
		for _, a := range s.Actions {
			sv.Actions = append(sv.Actions, ActionView{
				Type:        a.Kind,
				Description: a.Description,
				EXP:         a.EXP,
				REP:         a.REP,
				JCE:         a.JCE,
			})
		}
		view.Scores = append(view.Scores, sv)
	}
	return view
}

// Player looks up an exported player by name.
func (e Export) Player(name string) (PlayerView, bool) {
	for _, p := range e.Players {
		if p.Name == name {
			return p, true
		}
	}
	return PlayerView{}, false
}

// Day looks up an exported day.
func (e Export) Day(d Date) (DayView, bool) {
	for _, day := range e.ScoreHistory {
		if day.Date == d {
			return day, true
		}
	}
	return DayView{}, false
}
