// Package store persists stage artifacts so an interrupted run can resume.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/datapath"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

// ErrNotFound is returned by Load when no artifact matches the key.
var ErrNotFound = errors.New("artifact not found")

// Key identifies one stage output under one configuration.
type Key struct {
	Stage       string
	Fingerprint string
}

func (k Key) String() string {
	fp := k.Fingerprint
	if len(fp) > 16 {
		fp = fp[:16]
	}
	return k.Stage + "-" + fp
}

// Entry describes a stored artifact.
type Entry struct {
	Key
	Width     int
	Height    int
	CreatedAt time.Time
}

// Store saves and loads stage artifacts. Implementations must make a saved
// artifact visible to Load only once it is complete.
type Store interface {
	Load(ctx context.Context, key Key) (*field.ScalarField, error)
	Save(ctx context.Context, key Key, f *field.ScalarField) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Open returns the store selected by cfg.Driver. Relative paths resolve
// against cfg.DataDir, or the resolver's base when that is empty.
func Open(cfg config.StorageConfig, resolver datapath.Resolver) (Store, error) {
	if cfg.DataDir != "" {
		resolver = datapath.Static(cfg.DataDir)
	}

	switch cfg.Driver {
	case "file", "":
		return NewFileStore(resolver.Base())
	case "sqlite":
		return OpenSQLite(resolver.Path(cfg.SQLitePath))
	case "postgres":
		return OpenPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
