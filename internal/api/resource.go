package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Resource adapts one backend collection (T entities, C create payloads,
// U update payloads) to canonical models.
type Resource[T, C, U any] struct {
	client *Client
	path   string
	one    string
	many   string
}

func newResource[T, C, U any](c *Client, path, one, many string) *Resource[T, C, U] {
	return &Resource[T, C, U]{client: c, path: path, one: one, many: many}
}

type (
	SitesAPI      = Resource[models.Site, models.SiteInput, models.SiteUpdate]
	ClientsAPI    = Resource[models.Client, models.ClientInput, models.ClientUpdate]
	ActivitiesAPI = Resource[models.Activity, models.ActivityInput, models.ActivityUpdate]
)

// Sites returns the /sites adapter.
func (c *Client) Sites() *SitesAPI {
	return newResource[models.Site, models.SiteInput, models.SiteUpdate](c, "/sites", "site", "sites")
}

// Clients returns the /clients adapter.
func (c *Client) Clients() *ClientsAPI {
	return newResource[models.Client, models.ClientInput, models.ClientUpdate](c, "/clients", "client", "clients")
}

// Activities returns the /activities adapter.
func (c *Client) Activities() *ActivitiesAPI {
	return newResource[models.Activity, models.ActivityInput, models.ActivityUpdate](c, "/activities", "activity", "activities")
}

func (r *Resource[T, C, U]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches the whole collection.
func (r *Resource[T, C, U]) List(ctx context.Context) ([]T, error) {
	return r.Filter(ctx, nil)
}

// Filter fetches the collection with backend-side query parameters,
// e.g. siteId or clientId for activities.
func (r *Resource[T, C, U]) Filter(ctx context.Context, query url.Values) ([]T, error) {
	resp, err := r.client.Get(ctx, r.path, query)
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp.Body, r.many)
}

// Search runs the backend's text search. A blank query lists everything.
func (r *Resource[T, C, U]) Search(ctx context.Context, q string) ([]T, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.List(ctx)
	}
	resp, err := r.client.Get(ctx, r.path+"/search", url.Values{"q": {q}})
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp.Body, r.many)
}

// Get fetches one entity.
func (r *Resource[T, C, U]) Get(ctx context.Context, id string) (T, error) {
	resp, err := r.client.Get(ctx, r.item(id), nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](resp.Body, r.one)
}

// Create posts a new entity and returns the stored version.
func (r *Resource[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	resp, err := r.client.Post(ctx, r.path, in)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](resp.Body, r.one)
}

// Update replaces the editable fields of an entity.
func (r *Resource[T, C, U]) Update(ctx context.Context, id string, in U) (T, error) {
	resp, err := r.client.Put(ctx, r.item(id), in)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](resp.Body, r.one)
}

// Delete removes an entity. Referenced records come back as conflict errors.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id string) error {
	_, err := r.client.Delete(ctx, r.item(id))
	return err
}
