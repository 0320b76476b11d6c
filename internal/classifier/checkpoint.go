package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CheckpointStore persists classification progress so an interrupted run
// can resume without repeating completed work.
type CheckpointStore interface {
	Load() ([]Classified, error)
	Save(results []Classified) error
	Delete() error
}

// FileCheckpoint stores progress as a JSON array on local disk. Saves are
// atomic: a temp file in the same directory is renamed over the target, so
// a crash mid-write never leaves a truncated checkpoint behind.
type FileCheckpoint struct {
	path string
}

func NewFileCheckpoint(path string) *FileCheckpoint {
	return &FileCheckpoint{path: path}
}

// Load returns the saved progress, or nil when no checkpoint exists.
func (f *FileCheckpoint) Load() ([]Classified, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var results []Classified
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", f.path, err)
	}
	return results, nil
}

func (f *FileCheckpoint) Save(results []Classified) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint. A missing file is not an error.
func (f *FileCheckpoint) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
