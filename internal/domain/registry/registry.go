// Package registry holds the closed set of players known to a scoreboard run.
package registry

import (
	"fmt"
	"sync"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// Registry is a name-keyed player store seeded once from community membership.
// Upserts never add names, so the key set is fixed after seeding.
type Registry struct {
	mu      sync.RWMutex
	players map[string]model.Player
	order   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{players: make(map[string]model.Player)}
}

// Seed creates a zeroed player per name. Repeated names keep the first entry.
func (r *Registry) Seed(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if _, exists := r.players[name]; exists {
			continue
		}
		r.players[name] = model.NewPlayer(name)
		r.order = append(r.order, name)
	}
}

// Lookup returns the player stored under name.
func (r *Registry) Lookup(name string) (model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[name]
	return p, ok
}

// Upsert replaces the stored player with the same name.
// It returns model.ErrNotFound when the name was never seeded.
func (r *Registry) Upsert(p model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[p.Name]; !ok {
		return model.Wrap("registry.Upsert", model.ErrNotFound, fmt.Errorf("player %q", p.Name))
	}
	r.players[p.Name] = p
	return nil
}

// All returns every player in seed order.
func (r *Registry) All() []model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Player, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.players[name])
	}
	return out
}

// Len returns the number of seeded players.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
