package handlers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
	"github.com/diewo77/go-hoardings/internal/prefs"
)

// patchFromQuery reads one-off list criteria from the query string. Only the
// parameters present are set.
func patchFromQuery(q url.Values) (filters.Patch, map[string]string) {
	var p filters.Patch
	bad := map[string]string{}
	str := func(name string) *string {
		if !q.Has(name) {
			return nil
		}
		v := q.Get(name)
		return &v
	}
	num := func(name string) *int {
		if !q.Has(name) {
			return nil
		}
		n, err := strconv.Atoi(q.Get(name))
		if err != nil {
			bad[name] = "invalid_format"
			return nil
		}
		return &n
	}
	date := func(name string) *models.Date {
		if !q.Has(name) {
			return nil
		}
		if q.Get(name) == "" {
			return &models.Date{}
		}
		d, err := models.ParseDate(q.Get(name))
		if err != nil {
			bad[name] = "invalid_format"
			return nil
		}
		return &d
	}

	p.Search = str("search")
	p.Type = str("type")
	p.Status = str("status")
	p.SortBy = str("sortBy")
	if dir := str("sortDir"); dir != nil {
		d := filters.SortDir(*dir)
		p.SortDir = &d
	}
	p.From = date("from")
	p.To = date("to")
	p.Page = num("page")
	p.PageSize = num("pageSize")
	return p, bad
}

// listCriteria is the stored criteria of e overlaid with the request query.
// The overlay is not saved.
func listCriteria(ctx context.Context, st *filters.Store, e filters.Entity, q url.Values) (filters.Criteria, error) {
	p, bad := patchFromQuery(q)
	for k, v := range p.Validate(e, prefs.PageSizes) {
		bad[k] = v
	}
	if len(bad) > 0 {
		return filters.Criteria{}, apperr.Validation(bad)
	}
	return st.Get(ctx, e).Merge(p), nil
}
