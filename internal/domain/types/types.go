// Package types contains the read shapes shared by the API and tooling.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// SortKey selects the currency a leaderboard ranks by.
type SortKey string

// Sort keys.
const (
	ByEXP SortKey = "exp"
	ByREP SortKey = "rep"
	ByJCE SortKey = "jce"
)

// ParseSortKey accepts exp, rep or jce in any case. Empty means exp.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return ByEXP, nil
	case ByEXP, ByREP, ByJCE:
		return k, nil
	default:
		return "", model.Wrap("types.ParseSortKey", model.ErrValidation, fmt.Errorf("unknown sort key %q", s))
	}
}

func (k SortKey) value(p model.PlayerView) int {
	switch k {
	case ByREP:
		return p.REP
	case ByJCE:
		return p.JCE
	default:
		return p.EXP
	}
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	EXP  int    `json:"EXP"`
	REP  int    `json:"cREP"`
	JCE  int    `json:"JCE"`
}

// Leaderboard ranks players by key, highest first, ties broken by name.
// Tied values share a rank and the next distinct value skips ahead (1, 1, 3).
func Leaderboard(players []model.PlayerView, key SortKey) []Entry {
	sorted := make([]model.PlayerView, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := key.value(sorted[i]), key.value(sorted[j])
		if vi != vj {
			return vi > vj
		}
		return sorted[i].Name < sorted[j].Name
	})

	out := make([]Entry, 0, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && key.value(p) == key.value(sorted[i-1]) {
			rank = out[i-1].Rank
		}
		out = append(out, Entry{Rank: rank, Name: p.Name, EXP: p.EXP, REP: p.REP, JCE: p.JCE})
	}
	return out
}

// Find returns the entry for name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
