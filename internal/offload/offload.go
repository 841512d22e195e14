// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package offload keeps the raw paper lists of a run out of the model's
// context. Raw notes are written once per run and read back by run ID;
// the SQLite backend also indexes them for full-text retrieval.
package offload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store persists raw notes by run.
type Store interface {
	Put(ctx context.Context, runID string, notes []types.RawNote) error
	Get(ctx context.Context, runID string) ([]types.RawNote, error)
	Close() error
}

// Hit is one paper matched by a full-text query.
type Hit struct {
	RunID string            `json:"run_id" yaml:"run_id"`
	Topic string            `json:"topic" yaml:"topic"`
	Round int               `json:"round" yaml:"round"`
	Paper types.PaperRecord `json:"paper" yaml:"paper"`
}

// Searcher is implemented by stores with a full-text index.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// dbFile is the SQLite database name inside the offload directory.
const dbFile = "notes.db"

// Open returns the store selected by cfg. Backend "none" returns a nil
// Store and no error.
func Open(ctx context.Context, cfg types.OffloadConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "sqlite":
		dir := cfg.Dir
		if dir == "" {
			dir = types.DefaultOffloadConfig().Dir
		}
		s, err := OpenSQLite(filepath.Join(dir, dbFile))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := OpenRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown offload backend %q", cfg.Backend)
	}
}
