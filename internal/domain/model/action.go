package model

import (
	"fmt"
	"strings"
)

// ActionKind categorizes why points were awarded.
type ActionKind int

// Action kinds.
const (
	ActionMessage ActionKind = iota + 1
	ActionQuest
	ActionReaction
	ActionBounty
	ActionREP
)

var actionKindNames = map[ActionKind]string{
	ActionMessage:  "MESSAGE",
	ActionQuest:    "QUEST",
	ActionReaction: "REACTION",
	ActionBounty:   "BOUNTY",
	ActionREP:      "REP",
}

func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k ActionKind) Valid() bool {
	_, ok := actionKindNames[k]
	return ok
}

// MarshalText encodes the kind by name.
func (k ActionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, NewKind("model.ActionKind.MarshalText", ErrValidation)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name, case-insensitively.
func (k *ActionKind) UnmarshalText(b []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(b)))
	for kind, n := range actionKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return Wrap("model.ActionKind.UnmarshalText", ErrValidation, fmt.Errorf("unknown action kind %q", string(b)))
}

// Action is one immutable point award. EXP is never negative.
type Action struct {
	Kind        ActionKind
	Description string
	EXP         int
	REP         int
	JCE         int
}

// NewAction validates and builds an Action.
func NewAction(kind ActionKind, description string, exp, rep, jce int) (Action, error) {
	const op = "model.NewAction"
	if !kind.Valid() {
		return Action{}, Wrap(op, ErrValidation, fmt.Errorf("unknown action kind %d", int(kind)))
	}
	if exp < 0 {
		return Action{}, Wrap(op, ErrValidation, fmt.Errorf("EXP must not be negative, got %d", exp))
	}
	return Action{Kind: kind, Description: description, EXP: exp, REP: rep, JCE: jce}, nil
}
