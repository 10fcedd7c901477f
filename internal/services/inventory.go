package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/derive"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
	"github.com/diewo77/go-hoardings/validation"
)

// Collection runs the read and write paths of one backend collection
// through the cache: validate, call the backend, then update or invalidate
// the affected entries.
type Collection[T, C, U any] struct {
	entity  string
	res     *api.Resource[T, C, U]
	cache   *cache.Cache
	idOf    func(T) string
	create  func(C) validation.Violations
	update  func(T, U) validation.Violations
	apply   func(T, U) T
	related []cache.Key
}

// List returns the whole collection.
func (c *Collection[T, C, U]) List(ctx context.Context) ([]T, error) {
	return cache.Get(ctx, c.cache, cache.List(c.entity, ""), c.res.List)
}

// Search asks the backend for matches of q. A blank query is List.
func (c *Collection[T, C, U]) Search(ctx context.Context, q string) ([]T, error) {
	return cache.Get(ctx, c.cache, cache.List(c.entity, q), func(ctx context.Context) ([]T, error) {
		return c.res.Search(ctx, q)
	})
}

// Where returns the backend-filtered list for field=value.
func (c *Collection[T, C, U]) Where(ctx context.Context, field, value string) ([]T, error) {
	return cache.Get(ctx, c.cache, cache.ListBy(c.entity, field, value), func(ctx context.Context) ([]T, error) {
		return c.res.Filter(ctx, url.Values{field: {value}})
	})
}

// Get returns one record.
func (c *Collection[T, C, U]) Get(ctx context.Context, id string) (T, error) {
	return cache.Get(ctx, c.cache, cache.Detail(c.entity, id), func(ctx context.Context) (T, error) {
		return c.res.Get(ctx, id)
	})
}

// Create validates in and creates the record. Every list of the collection
// and the related aggregates are invalidated so the next read shows it.
func (c *Collection[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	var zero T
	if v := c.create(in); !v.Empty() {
		return zero, apperr.Validation(v)
	}
	out, err := c.res.Create(ctx, in)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.entity, err)
	}
	c.cache.Set(cache.Detail(c.entity, c.idOf(out)), out)
	c.invalidate()
	return out, nil
}

// Update applies in optimistically to the cached record, then commits the
// backend's response or restores the previous value on failure.
func (c *Collection[T, C, U]) Update(ctx context.Context, id string, in U) (T, error) {
	var zero T
	cur, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if v := c.update(cur, in); !v.Empty() {
		return zero, apperr.Validation(v)
	}
	out, err := cache.Mutate(ctx, c.cache, cache.Detail(c.entity, id), c.apply(cur, in),
		func(ctx context.Context) (T, error) { return c.res.Update(ctx, id, in) },
		c.related...)
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", c.entity, id, err)
	}
	return out, nil
}

// Delete removes the record once the backend confirms. When the backend
// refuses (e.g. a client still referenced by activities) nothing in the
// cache changes.
func (c *Collection[T, C, U]) Delete(ctx context.Context, id string) error {
	if err := c.res.Delete(ctx, id); err != nil {
		if apperr.IsDependency(err) {
			log.Printf("%s %s still referenced, not deleted", c.entity, id)
		}
		return fmt.Errorf("delete %s %s: %w", c.entity, id, err)
	}
	c.cache.Remove(cache.Detail(c.entity, id))
	c.invalidate()
	return nil
}

func (c *Collection[T, C, U]) invalidate() {
	for _, k := range c.related {
		c.cache.Invalidate(k)
	}
}

// Inventory groups the three collections of the console.
type Inventory struct {
	Sites      *Collection[models.Site, models.SiteInput, models.SiteUpdate]
	Clients    *Collection[models.Client, models.ClientInput, models.ClientUpdate]
	Activities *Collection[models.Activity, models.ActivityInput, models.ActivityUpdate]

	now func() time.Time
}

func NewInventory(client *api.Client, c *cache.Cache) *Inventory {
	dashboard := cache.All(cache.EntityDashboard)
	activityLists := cache.ListsOf(cache.EntityActivities)
	return &Inventory{
		Sites: &Collection[models.Site, models.SiteInput, models.SiteUpdate]{
			entity:  cache.EntitySites,
			res:     client.Sites(),
			cache:   c,
			idOf:    func(s models.Site) string { return s.ID },
			create:  validation.Site,
			update:  func(_ models.Site, u models.SiteUpdate) validation.Violations { return validation.SiteUpdate(u) },
			apply:   models.Site.Apply,
			related: []cache.Key{cache.ListsOf(cache.EntitySites), activityLists, dashboard},
		},
		Clients: &Collection[models.Client, models.ClientInput, models.ClientUpdate]{
			entity:  cache.EntityClients,
			res:     client.Clients(),
			cache:   c,
			idOf:    func(cl models.Client) string { return cl.ID },
			create:  validation.Client,
			update:  func(_ models.Client, u models.ClientUpdate) validation.Violations { return validation.ClientUpdate(u) },
			apply:   models.Client.Apply,
			related: []cache.Key{cache.ListsOf(cache.EntityClients), activityLists, dashboard},
		},
		Activities: &Collection[models.Activity, models.ActivityInput, models.ActivityUpdate]{
			entity: cache.EntityActivities,
			res:    client.Activities(),
			cache:  c,
			idOf:   func(a models.Activity) string { return a.ID },
			create: validation.Activity,
			// The site and client stay fixed, so the edited record is checked
			// with the full create rules.
			update: func(cur models.Activity, u models.ActivityUpdate) validation.Violations {
				return validation.Activity(cur.Apply(u).Input())
			},
			apply:   models.Activity.Apply,
			related: []cache.Key{activityLists, cache.ListsOf(cache.EntitySites), dashboard},
		},
		now: time.Now,
	}
}

// SitePage is the sites list under c. A search goes to the backend and the
// remaining criteria are applied locally. Filtering by status fills in
// occupancy from the activities for sites the backend left blank.
func (s *Inventory) SitePage(ctx context.Context, c filters.Criteria) (filters.Page[models.Site], error) {
	sites, err := s.Sites.Search(ctx, c.Search)
	if err != nil {
		return filters.Page[models.Site]{}, err
	}
	if c.Status != "" {
		acts, err := s.Activities.List(ctx)
		if err != nil {
			return filters.Page[models.Site]{}, err
		}
		sites = derive.FillOccupancy(sites, acts, s.now())
	}
	c.Search = ""
	return filters.SiteView(sites, c), nil
}

func (s *Inventory) ClientPage(ctx context.Context, c filters.Criteria) (filters.Page[models.Client], error) {
	clients, err := s.Clients.Search(ctx, c.Search)
	if err != nil {
		return filters.Page[models.Client]{}, err
	}
	c.Search = ""
	return filters.ClientView(clients, c), nil
}

// ActivityPage filters the full activity list locally; the backend has no
// activity search.
func (s *Inventory) ActivityPage(ctx context.Context, c filters.Criteria) (filters.Page[models.Activity], error) {
	acts, err := s.Activities.List(ctx)
	if err != nil {
		return filters.Page[models.Activity]{}, err
	}
	return filters.ActivityView(acts, c, s.now()), nil
}

// SiteHistory returns the activities booked on a site, newest first.
func (s *Inventory) SiteHistory(ctx context.Context, siteID string) ([]models.Activity, error) {
	if _, err := s.Sites.Get(ctx, siteID); err != nil {
		return nil, err
	}
	acts, err := s.Activities.Where(ctx, "siteId", siteID)
	if err != nil {
		return nil, err
	}
	return filters.ActivityView(acts, filters.Criteria{SortBy: "startDate", SortDir: filters.Desc}, s.now()).Items, nil
}
