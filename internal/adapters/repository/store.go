// Package repository persists finished replay runs.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// Run is one completed replay together with its export.
type Run struct {
	ID         uuid.UUID    `json:"id"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Channels   []string     `json:"channels"`
	Export     model.Export `json:"export"`
}

// NewRun stamps an export with a fresh run ID.
func NewRun(started, finished time.Time, channels []string, export model.Export) Run {
	ch := make([]string, len(channels))
	copy(ch, channels)
	return Run{
		ID:         uuid.New(),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Channels:   ch,
		Export:     export,
	}
}

// Store saves runs and reads back the newest one.
type Store interface {
	// Save persists the run. Implementations write all or nothing where the backend allows it.
	Save(ctx context.Context, run Run) error

	// Latest returns the most recently saved run.
	// Returns ErrNotFound if nothing was saved yet.
	Latest(ctx context.Context) (Run, error)
}
