package plan

import (
	"context"
	"maps"
	"sync"
)

// Source defines how tier catalogs are loaded into the resolver.
type Source interface {
	Load(ctx context.Context) (map[string]Profile, error)
}

// inMemSource serves a deep copy of a fixed catalog.
type inMemSource struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewInMemSource returns an in-memory Source with a copy of the given
// catalog. Passing nil serves DefaultCatalog.
func NewInMemSource(profiles map[string]Profile) Source {
	if profiles == nil {
		profiles = DefaultCatalog()
	}
	return &inMemSource{profiles: maps.Clone(profiles)}
}

func (s *inMemSource) Load(ctx context.Context) (map[string]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.profiles), nil
}
