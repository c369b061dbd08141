package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is the registry cache lifetime, per spec.md §4.2.
const DefaultTTL = 6 * time.Hour

// RefreshObserver is notified of per-refresh counters; the dashboard and
// /health endpoint use this instead of blocking on an in-flight refresh.
type RefreshObserver interface {
	OnSourceQueried(source string, modelCount int, err error)
	OnRefreshComplete(totalFetched, totalDeduped int)
}

// Cache is the single in-memory ModelRegistry with a TTL and an atomic
// pointer-swap refresh, per spec.md §4.2/§5 ("readers see either the old
// or the new snapshot, never a half-built one").
type Cache struct {
	sources  []Source
	overlay  *PriceOverlay
	ttl      time.Duration
	observer RefreshObserver

	snapshot    atomic.Pointer[ModelRegistry]
	refreshOnce sync.Mutex // serializes concurrent refreshes; readers never block on it
}

func NewCache(sources []Source, overlay *PriceOverlay, ttl time.Duration, observer RefreshObserver) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{sources: sources, overlay: overlay, ttl: ttl, observer: observer}
}

// Get returns the current registry, building it lazily on first call.
func (c *Cache) Get(ctx context.Context) (*ModelRegistry, error) {
	if snap := c.snapshot.Load(); snap != nil && !c.stale(snap) {
		return snap, nil
	}
	if err := c.Refresh(ctx); err != nil {
		// Serve a stale snapshot rather than failing the request outright,
		// if one exists; a fully cold cache with a failed first refresh
		// still returns the error.
		if snap := c.snapshot.Load(); snap != nil {
			return snap, nil
		}
		return nil, err
	}
	return c.snapshot.Load(), nil
}

func (c *Cache) stale(snap *ModelRegistry) bool {
	age := time.Since(time.UnixMilli(snap.LastUpdated))
	return age > c.ttl
}

// Refresh rebuilds the registry from every source in parallel and
// atomically swaps the snapshot in. A single source's failure does not
// fail the aggregate (spec.md §4.2).
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshOnce.Lock()
	defer c.refreshOnce.Unlock()

	type sourceResult struct {
		source string
		models []ModelInfo
		err    error
	}

	results := make(chan sourceResult, len(c.sources))
	var wg sync.WaitGroup
	for _, src := range c.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			models, err := src.Fetch(ctx)
			results <- sourceResult{source: src.Name(), models: models, err: err}
		}(src)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []ModelInfo
	contributedSources := map[string]bool{}
	totalFetched := 0
	for r := range results {
		if c.observer != nil {
			c.observer.OnSourceQueried(r.source, len(r.models), r.err)
		}
		if r.err != nil || len(r.models) == 0 {
			continue
		}
		contributedSources[r.source] = true
		totalFetched += len(r.models)
		all = append(all, r.models...)
	}

	deduped := Deduplicate(all)
	deduped = ApplyOverlay(deduped, c.overlay)

	sources := make([]string, 0, len(contributedSources))
	for s := range contributedSources {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	snap := &ModelRegistry{
		Models:      deduped,
		LastUpdated: time.Now().UnixMilli(),
		Sources:     sources,
	}
	c.snapshot.Store(snap)

	if c.observer != nil {
		c.observer.OnRefreshComplete(totalFetched, len(deduped))
	}
	return nil
}

// PricingFor resolves a model's pricing entry; the token-metered cost
// arithmetic lives in payment.CalculateInferenceCost so pricing formulas
// live in one place.
func (r *ModelRegistry) PricingFor(modelID string) (Pricing, bool) {
	m, ok := r.GetModelInfo(modelID)
	if !ok || m.Pricing == nil {
		return Pricing{}, false
	}
	return *m.Pricing, true
}
