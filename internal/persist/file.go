// Package persist implements snapshot durability backends for the catalog
// store: a JSON file for single-node deployments and Postgres when a
// database is configured.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"freewatch-server/internal/model"
)

// File persists the snapshot as a single JSON document on disk. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// half-written snapshot behind.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(_ context.Context) (model.CacheSnapshot, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.CacheSnapshot{}, false, nil
	}
	if err != nil {
		return model.CacheSnapshot{}, false, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap model.CacheSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.CacheSnapshot{}, false, fmt.Errorf("decode snapshot file: %w", err)
	}
	return snap, true, nil
}

func (f *File) Save(_ context.Context, snap model.CacheSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
