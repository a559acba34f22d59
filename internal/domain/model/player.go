package model

import "fmt"

// Player is a named accumulator of EXP, REP and JCE.
// EXP only grows; REP and JCE are signed.
type Player struct {
	Name string
	EXP  int
	REP  int
	JCE  int
}

// NewPlayer returns a zeroed player.
func NewPlayer(name string) Player {
	return Player{Name: name}
}

// AddEXP adds n EXP. Negative amounts are rejected and leave p unchanged.
func (p *Player) AddEXP(n int) error {
	if n < 0 {
		return Wrap("model.Player.AddEXP", ErrValidation, fmt.Errorf("can only add EXP, got %d", n))
	}
	p.EXP += n
	return nil
}

// AddREP adds a signed REP delta.
func (p *Player) AddREP(n int) { p.REP += n }

// AddJCE adds a signed JCE delta.
func (p *Player) AddJCE(n int) { p.JCE += n }

// Apply adds every delta of a into p. Nothing is applied if the EXP is rejected.
func (p *Player) Apply(a Action) error {
	if err := p.AddEXP(a.EXP); err != nil {
		return err
	}
	p.AddREP(a.REP)
	p.AddJCE(a.JCE)
	return nil
}
