// Package cache stores rendered diagram artifacts.
//
// Artifacts are keyed by the hash of the topology they were rendered from
// plus every option that changes the output (format, container size,
// selections, background). Three backends are provided:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for several `clocktree serve` instances
//
// Cache and key generation are separate concerns: a [Keyer] turns inputs
// into keys and a [Cache] stores bytes. Use [NewScopedKeyer] to keep several
// deployments apart on one Redis database.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// TopologyKey identifies a topology by its content hash.
	TopologyKey(topologyHash string) string

	// ArtifactKey identifies one rendered artifact of a topology.
	ArtifactKey(topologyHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds everything that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format     string            `json:"format"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Selections map[string]string `json:"selections,omitempty"`
	Background string            `json:"background,omitempty"`
	Scale      float64           `json:"scale,omitempty"`
	Embedded   bool              `json:"embedded,omitempty"`
	Detailed   bool              `json:"detailed,omitempty"`
}

// TTLs for cached entries.
const (
	// TTLArtifact is how long a rendered artifact stays cached. Artifacts are
	// keyed by topology content, so an old entry is unused rather than wrong.
	TTLArtifact = 7 * 24 * time.Hour
)
