package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/scorekeeper/pkg/logger"
)

// FileStore writes the run as indented JSON to a single path.
// Writes go through a temp file in the same directory and a rename.
type FileStore struct {
	path string
	log  logger.Logger
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path: %w", ErrInvalidStore)
	}
	o := apply(opts)
	return &FileStore{path: path, log: o.log.Named("file_store")}, nil
}

// Path returns the output path.
func (s *FileStore) Path() string { return s.path }

// Save writes run to the configured path.
func (s *FileStore) Save(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: marshal run: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("file store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := tmp.Chmod(defaultFileMode); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("file store: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file store: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("file store: rename: %w", err)
	}

	s.log.Info(ctx, "run written",
		logger.String("path", s.path),
		logger.String("run_id", run.ID.String()),
		logger.Int("players", len(run.Export.Players)),
		logger.Int("days", len(run.Export.ScoreHistory)))
	return nil
}

// Latest reads the run back from disk.
func (s *FileStore) Latest(ctx context.Context) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("file store: read: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("file store: %w: %w", ErrCorruptRun, err)
	}
	return run, nil
}
