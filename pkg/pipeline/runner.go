package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clocktree/pkg/cache"
	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/freq"
	"github.com/matzehuels/clocktree/pkg/observability"
	"github.com/matzehuels/clocktree/pkg/topology"
)

// Runner encapsulates export execution with caching.
// Both the CLI and the web host use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// results. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute builds topo and renders every requested format, serving artifacts
// from the cache when all of them are present.
func (r *Runner) Execute(ctx context.Context, topo *topology.Topology, opts Options) (res *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(topo); err != nil {
		return nil, err
	}
	if err := checkSelections(topo, opts.Selections); err != nil {
		return nil, err
	}

	hooks := observability.Export()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err) }()

	hash, err := TopologyHash(topo)
	if err != nil {
		return nil, err
	}
	result := &Result{TopologyHash: hash}

	if !opts.Refresh {
		if artifacts, ok := r.lookup(ctx, hash, opts); ok {
			r.Logger.Debug("export served from cache", "formats", opts.Formats)
			result.Artifacts = artifacts
			result.CacheHit = true
			return result, nil
		}
	}

	buildStart := time.Now()
	m, err := Build(topo, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Model = m
	result.Stats.Nodes = len(m.Nodes)
	result.Stats.BuildTime = time.Since(buildStart)

	renderStart := time.Now()
	artifacts, err := Render(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		}
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"nodes", result.Stats.Nodes,
		"duration", result.Stats.BuildTime+result.Stats.RenderTime)
	return result, nil
}

// lookup returns every requested artifact from the cache, or false if any
// is missing.
func (r *Runner) lookup(ctx context.Context, hash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)))
		if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "err", err)
			return nil, false
		}
		if !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// TopologyHash returns the content hash of topo's canonical TOML encoding.
func TopologyHash(topo *topology.Topology) (string, error) {
	data, err := topology.Encode(topo, topology.FormatTOML)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode topology")
	}
	return cache.Hash(data), nil
}

// checkSelections rejects selections for unknown or fixed dividers and
// malformed ratios up front; a live controller only logs them.
func checkSelections(topo *topology.Topology, selections map[string]string) error {
	for key, option := range selections {
		spec, ok := topo.Lookup(key)
		if !ok || spec.Kind != topology.KindDivider {
			return errors.New(errors.ErrCodeMissingNode, "no divider %q", key)
		}
		if !spec.Interactive() {
			return errors.New(errors.ErrCodeInvalidInput, "divider %q is fixed at %s", key, spec.Label)
		}
		if _, err := freq.ParseRatio(option); err != nil {
			return err
		}
	}
	return nil
}
