// Package gwstate tracks live operational counters for the dashboard and
// /health endpoint: registry refresh progress.
// Adapted from the teacher's internal/appstate atomic-counter pattern.
package gwstate

import (
	"sync"
	"sync/atomic"
	"time"
)

// RegistryRefreshState records counters for the most recent (or
// in-progress) registry refresh without blocking the refresh itself.
type RegistryRefreshState struct {
	sourcesQueried atomic.Int64
	sourcesFailed  atomic.Int64
	modelsFetched  atomic.Int64
	modelsDeduped  atomic.Int64
	lastRefresh    atomic.Int64 // epoch ms

	mu          sync.Mutex
	lastErrors  map[string]string
}

func NewRegistryRefreshState() *RegistryRefreshState {
	return &RegistryRefreshState{lastErrors: make(map[string]string)}
}

// OnSourceQueried implements registry.RefreshObserver.
func (s *RegistryRefreshState) OnSourceQueried(source string, modelCount int, err error) {
	s.sourcesQueried.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.sourcesFailed.Add(1)
		s.lastErrors[source] = err.Error()
		return
	}
	delete(s.lastErrors, source)
}

// OnRefreshComplete implements registry.RefreshObserver.
func (s *RegistryRefreshState) OnRefreshComplete(totalFetched, totalDeduped int) {
	s.modelsFetched.Store(int64(totalFetched))
	s.modelsDeduped.Store(int64(totalDeduped))
	s.lastRefresh.Store(time.Now().UnixMilli())
}

// RegistrySnapshot is a point-in-time read for display.
type RegistrySnapshot struct {
	SourcesQueried int64
	SourcesFailed  int64
	ModelsFetched  int64
	ModelsDeduped  int64
	LastRefresh    int64
	Errors         map[string]string
}

func (s *RegistryRefreshState) Snapshot() RegistrySnapshot {
	s.mu.Lock()
	errs := make(map[string]string, len(s.lastErrors))
	for k, v := range s.lastErrors {
		errs[k] = v
	}
	s.mu.Unlock()
	return RegistrySnapshot{
		SourcesQueried: s.sourcesQueried.Load(),
		SourcesFailed:  s.sourcesFailed.Load(),
		ModelsFetched:  s.modelsFetched.Load(),
		ModelsDeduped:  s.modelsDeduped.Load(),
		LastRefresh:    s.lastRefresh.Load(),
		Errors:         errs,
	}
}
