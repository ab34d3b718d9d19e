package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key prefixes of the default keyer.
const (
	prefixTopology = "topology"
	prefixArtifact = "artifact"
)

// DefaultKeyer generates plain keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a keyer without a prefix.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TopologyKey implements [Keyer].
func (DefaultKeyer) TopologyKey(topologyHash string) string {
	return prefixTopology + ":" + topologyHash
}

// ArtifactKey implements [Keyer]. The options are hashed as JSON, whose map
// keys are sorted, so equal selections always give equal keys.
func (DefaultKeyer) ArtifactKey(topologyHash string, opts ArtifactKeyOpts) string {
	h := sha256.New()
	h.Write([]byte(topologyHash))
	h.Write([]byte{0})
	// ArtifactKeyOpts holds only plain values; encoding cannot fail.
	_ = json.NewEncoder(h).Encode(opts)
	return prefixArtifact + ":" + hex.EncodeToString(h.Sum(nil))
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data, 64 characters long.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
