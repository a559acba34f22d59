package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/scorekeeper/pkg/logger"
	"github.com/okian/scorekeeper/pkg/metrics"
)

// Named pairs a store with the label used in logs and metrics.
type Named struct {
	Name  string
	Store Store
}

// MultiStore fans a save out to every configured store.
type MultiStore struct {
	stores []Named
	log    logger.Logger
}

// NewMultiStore returns a MultiStore over stores. At least one store is required.
func NewMultiStore(stores []Named, opts ...Option) (*MultiStore, error) {
	if len(stores) == 0 {
		return nil, ErrNoStores
	}
	for _, s := range stores {
		if s.Store == nil || s.Name == "" {
			return nil, fmt.Errorf("multi store: %w", ErrInvalidStore)
		}
	}
	o := apply(opts)
	cp := make([]Named, len(stores))
	copy(cp, stores)
	return &MultiStore{stores: cp, log: o.log.Named("multi_store")}, nil
}

// Names lists the configured store labels in order.
func (m *MultiStore) Names() []string {
	out := make([]string, 0, len(m.stores))
	for _, s := range m.stores {
		out = append(out, s.Name)
	}
	return out
}

// Save writes to every store, even after a failure, and joins the errors.
func (m *MultiStore) Save(ctx context.Context, run Run) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Store.Save(ctx, run); err != nil {
			metrics.RecordStoreSave(s.Name, "error")
			m.log.Error(ctx, "save failed", logger.String("store", s.Name), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		metrics.RecordStoreSave(s.Name, "ok")
	}
	return errors.Join(errs...)
}

// Latest returns the first store's run that can be read.
func (m *MultiStore) Latest(ctx context.Context) (Run, error) {
	var errs []error
	for _, s := range m.stores {
		run, err := s.Store.Latest(ctx)
		if err == nil {
			return run, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	if len(errs) > 0 {
		return Run{}, errors.Join(errs...)
	}
	return Run{}, ErrNotFound
}
