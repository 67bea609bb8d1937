package scraper

import (
	"context"
	"fmt"
	"sync"

	"dealvoy/internal/domain"
	"dealvoy/internal/domain/entity"
	"dealvoy/pkg/errcodes"
)

// SnapshotSource fetches one price reading for a UPC. This is the shape the
// sync orchestrator consumes.
type SnapshotSource interface {
	Fetch(ctx context.Context, upc string) (entity.PriceSnapshot, error)
}

// BatchSource produces a batch of ready-made export items. This is the
// shape the async fan-out path consumes.
type BatchSource interface {
	FetchBatch(ctx context.Context) ([]entity.ExportItem, error)
}

// SnapshotFunc adapts a plain function to SnapshotSource.
type SnapshotFunc func(ctx context.Context, upc string) (entity.PriceSnapshot, error)

func (f SnapshotFunc) Fetch(ctx context.Context, upc string) (entity.PriceSnapshot, error) {
	return f(ctx, upc)
}

// BatchFunc adapts a plain function to BatchSource.
type BatchFunc func(ctx context.Context) ([]entity.ExportItem, error)

func (f BatchFunc) FetchBatch(ctx context.Context) ([]entity.ExportItem, error) {
	return f(ctx)
}

// Registry is pure bookkeeping for named price sources. An instance is
// constructed per process (or per test) and injected into the
// orchestrators; there is no package-level registry.
//
// Iteration via Names follows registration order so that orchestrator runs
// stay reproducible.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]SnapshotSource
	batches map[string]BatchSource
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SnapshotSource),
		batches: make(map[string]BatchSource),
	}
}

// Register adds a named snapshot source. Registering an existing name
// replaces the previous source; the original position in iteration order is
// kept.
func (r *Registry) Register(name string, source SnapshotSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}

	r.sources[name] = source
}

// RegisterBatch adds a named batch source. Same overwrite semantics as
// Register; batch sources have their own namespace.
func (r *Registry) RegisterBatch(name string, source BatchSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches[name] = source
}

// Resolve returns the snapshot source registered under name.
func (r *Registry) Resolve(name string) (SnapshotSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[name]
	if !ok {
		return nil, domain.NewError(errcodes.SourceNotFound, fmt.Sprintf("source %q is not registered", name))
	}

	return source, nil
}

// ResolveBatch returns the batch source registered under name.
func (r *Registry) ResolveBatch(name string) (BatchSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.batches[name]
	if !ok {
		return nil, domain.NewError(errcodes.SourceNotFound, fmt.Sprintf("batch source %q is not registered", name))
	}

	return source, nil
}

// Names returns the snapshot source names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// Len reports the number of registered snapshot sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sources)
}
