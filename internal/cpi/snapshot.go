package cpi

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable, fully built dataset. Refreshing the data
// produces a new Snapshot; an existing one is never patched.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	Catalog  *Catalog
}

// NewSnapshot builds a catalog from records and stamps it with a fresh
// version id.
func NewSnapshot(records *Records, defaults Defaults) (*Snapshot, error) {
	return NewVersionedSnapshot(records, defaults, "")
}

// NewVersionedSnapshot is NewSnapshot with a caller-chosen version, such as
// the id of the stored refresh the records came from. An empty version gets
// a fresh one.
func NewVersionedSnapshot(records *Records, defaults Defaults, version string) (*Snapshot, error) {
	cat, err := Build(records, defaults)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	if version == "" {
		version = uuid.NewString()
	}
	return &Snapshot{
		Version:  version,
		LoadedAt: time.Now().UTC(),
		Catalog:  cat,
	}, nil
}
