package filters

import (
	"context"
	"log"
	"sync"

	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/prefs"
)

// PageSizeStore persists the default page size across sessions.
type PageSizeStore interface {
	PageSize(ctx context.Context) int
	SetPageSize(ctx context.Context, n int) error
}

// Store holds the criteria of every list for the console session. Lists that
// were never touched report their defaults.
type Store struct {
	pageSizes PageSizeStore

	mu       sync.RWMutex
	criteria map[Entity]Criteria
}

// NewStore builds an empty store. ps may be nil, in which case the page size
// falls back to the built-in default and is not persisted.
func NewStore(ps PageSizeStore) *Store {
	return &Store{pageSizes: ps, criteria: make(map[Entity]Criteria)}
}

func (s *Store) defaultPageSize(ctx context.Context) int {
	if s.pageSizes == nil {
		return prefs.DefaultPageSize
	}
	return s.pageSizes.PageSize(ctx)
}

// Get returns the current criteria of e.
func (s *Store) Get(ctx context.Context, e Entity) Criteria {
	s.mu.RLock()
	c, ok := s.criteria[e]
	s.mu.RUnlock()
	if ok {
		return c
	}
	return Defaults(e, s.defaultPageSize(ctx))
}

// Update merges p into the criteria of e. Invalid patches change nothing.
// A new page size is also written through as the persisted default.
func (s *Store) Update(ctx context.Context, e Entity, p Patch) (Criteria, error) {
	if !e.Valid() {
		return Criteria{}, apperr.NotFound("list", string(e))
	}
	if v := p.Validate(e, prefs.PageSizes); len(v) > 0 {
		return Criteria{}, apperr.Validation(v)
	}

	base := s.Get(ctx, e)
	s.mu.Lock()
	if cur, ok := s.criteria[e]; ok {
		base = cur
	}
	next := base.Merge(p)
	s.criteria[e] = next
	s.mu.Unlock()

	if p.PageSize != nil && s.pageSizes != nil {
		if err := s.pageSizes.SetPageSize(ctx, *p.PageSize); err != nil {
			log.Printf("filters: persist page size: %v", err)
		}
	}
	return next, nil
}

// Reset restores the defaults of e.
func (s *Store) Reset(ctx context.Context, e Entity) Criteria {
	s.mu.Lock()
	delete(s.criteria, e)
	s.mu.Unlock()
	return s.Get(ctx, e)
}

// ResetAll restores the defaults of every list (logout).
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.criteria = make(map[Entity]Criteria)
	s.mu.Unlock()
}
