package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Range    pitch.Range
	Models   Table
	Mappings Table // optional
	Logger   logging.Logger
}

// Registry hands out catalog snapshots. A snapshot is never modified; Load builds a
// complete replacement and swaps it in, so readers holding the previous snapshot are
// unaffected.
type Registry struct {
	cfg     RegistryConfig
	logger  logging.Logger
	current atomic.Pointer[Catalog]
	once    sync.Once
}

// NewRegistry returns an empty registry. The first Snapshot loads it if Load was not
// called.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Range == (pitch.Range{}) {
		cfg.Range = pitch.DefaultRange
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Registry{
		cfg:    cfg,
		logger: logger.WithFields(logging.Fields{"component": "catalog"}),
	}
}

// Range returns the pitch range used for model distributions.
func (r *Registry) Range() pitch.Range {
	return r.cfg.Range
}

// Load reads the configured tables and installs the result. It always installs a
// usable catalog; see LoadReport for what happened.
func (r *Registry) Load(ctx context.Context) *LoadReport {
	return r.LoadFrom(ctx, r.cfg.Models, r.cfg.Mappings)
}

// LoadFrom is Load with explicit tables.
func (r *Registry) LoadFrom(ctx context.Context, models, mappings Table) *LoadReport {
	logger := r.logger.WithFields(logging.Fields{"function": "Load"})
	c, report := build(ctx, r.cfg.Range, models, mappings, logger)
	r.Store(c)
	return report
}

// Store installs c as the current snapshot.
func (r *Registry) Store(c *Catalog) {
	r.current.Store(c)
	r.once.Do(func() {})
}

// Snapshot returns the current catalog, loading it on first use.
func (r *Registry) Snapshot() *Catalog {
	r.once.Do(func() {
		if r.current.Load() == nil {
			c, _ := build(context.Background(), r.cfg.Range, r.cfg.Models, r.cfg.Mappings,
				r.logger.WithFields(logging.Fields{"function": "Snapshot"}))
			r.current.Store(c)
		}
	})
	return r.current.Load()
}
