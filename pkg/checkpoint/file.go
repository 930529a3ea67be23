package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
)

// FileStore keeps the state as a JSON document on disk. Writes go to a
// temporary file in the same directory and are renamed into place, so a
// crash never leaves a truncated state behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path. The parent directory is created.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "checkpoint file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create checkpoint directory")
	}
	return &FileStore{path: path}, nil
}

// Path returns the state file location
func (f *FileStore) Path() string {
	return f.path
}

// Read loads the state; a missing file is an empty state
func (f *FileStore) Read(context.Context) (core.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return core.State{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint file")
	}
	return decode(data)
}

// Write atomically replaces the state file
func (f *FileStore) Write(_ context.Context, state core.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create temporary checkpoint file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to sync checkpoint file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to close checkpoint file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to replace checkpoint file")
	}
	return nil
}

// Close is a no-op
func (f *FileStore) Close() error {
	return nil
}
