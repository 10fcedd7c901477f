package filters

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/diewo77/go-hoardings/internal/derive"
	"github.com/diewo77/go-hoardings/internal/models"
)

// Page is one page of a derived view.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Pages    int `json:"pages"`
}

// Paginate slices items for page (1-based). A page past the end is clamped
// to the last page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	pages := (len(items) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return Page[T]{Items: out, Total: len(items), Page: page, PageSize: size, Pages: pages}
}

func contains(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), needle)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func direction(d SortDir, c int) int {
	if d == Desc {
		return -c
	}
	return c
}

// SiteView applies c to sites. Search matches the site number, location and
// size, case-insensitively.
func SiteView(sites []models.Site, c Criteria) Page[models.Site] {
	q := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]models.Site, 0, len(sites))
	for _, s := range sites {
		if q != "" && !contains(s.SiteNo, q) && !contains(s.Location, q) && !contains(s.Size, q) {
			continue
		}
		if c.Type != "" && string(s.Type) != c.Type {
			continue
		}
		switch c.Status {
		case StatusOccupied:
			if !s.Occupied() {
				continue
			}
		case StatusVacant:
			if s.Occupied() {
				continue
			}
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b models.Site) int {
		var r int
		switch c.SortBy {
		case "location":
			r = cmp.Compare(strings.ToLower(a.Location), strings.ToLower(b.Location))
		case "type":
			r = cmp.Compare(a.Type, b.Type)
		case "size":
			r = cmp.Compare(a.Size, b.Size)
		case "createdAt":
			r = a.CreatedAt.Compare(b.CreatedAt)
		default:
			r = cmp.Compare(strings.ToLower(a.SiteNo), strings.ToLower(b.SiteNo))
		}
		if r == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return direction(c.SortDir, r)
	})
	return Paginate(out, c.Page, c.PageSize)
}

// ClientView applies c to clients. Search matches name, email, phone and GST.
func ClientView(clients []models.Client, c Criteria) Page[models.Client] {
	q := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]models.Client, 0, len(clients))
	for _, cl := range clients {
		if q != "" && !contains(cl.Name, q) && !contains(deref(cl.Email), q) &&
			!contains(deref(cl.Phone), q) && !contains(deref(cl.GSTNumber), q) {
			continue
		}
		out = append(out, cl)
	}

	slices.SortStableFunc(out, func(a, b models.Client) int {
		var r int
		switch c.SortBy {
		case "email":
			r = cmp.Compare(strings.ToLower(deref(a.Email)), strings.ToLower(deref(b.Email)))
		case "createdAt":
			r = a.CreatedAt.Compare(b.CreatedAt)
		default:
			r = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if r == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return direction(c.SortDir, r)
	})
	return Paginate(out, c.Page, c.PageSize)
}

// ActivityView applies c to activities as of today. Search matches the site
// number and location, the client name, the action and the notes. Status is
// judged with derive.IsActive; the date range bounds the start date.
func ActivityView(acts []models.Activity, c Criteria, today time.Time) Page[models.Activity] {
	q := strings.ToLower(strings.TrimSpace(c.Search))
	day := models.DateOf(today)
	ranged := derive.FilterByStartRange(acts, c.From, c.To)
	out := make([]models.Activity, 0, len(ranged))
	for _, a := range ranged {
		if q != "" && !activityMatches(a, q) {
			continue
		}
		if c.Type != "" && string(a.Action) != c.Type {
			continue
		}
		switch c.Status {
		case StatusActive:
			if !derive.IsActive(a, today) {
				continue
			}
		case StatusUpcoming:
			if !day.Before(a.StartDate) {
				continue
			}
		case StatusEnded:
			if a.EndDate == nil || !day.After(*a.EndDate) {
				continue
			}
		}
		out = append(out, a)
	}

	if c.SortBy == "startDate" || c.SortBy == "" {
		if c.SortDir == Asc {
			slices.SortStableFunc(out, func(a, b models.Activity) int {
				if r := a.StartDate.Compare(b.StartDate.Time); r != 0 {
					return r
				}
				return cmp.Compare(a.ID, b.ID)
			})
		} else {
			out = derive.SortByStartDesc(out)
		}
		return Paginate(out, c.Page, c.PageSize)
	}

	slices.SortStableFunc(out, func(a, b models.Activity) int {
		var r int
		switch c.SortBy {
		case "endDate":
			r = compareOptionalDate(a.EndDate, b.EndDate)
		case "ratePerMonth":
			r = cmp.Compare(derive.Rate(a), derive.Rate(b))
		case "action":
			r = cmp.Compare(a.Action, b.Action)
		case "createdAt":
			r = a.CreatedAt.Compare(b.CreatedAt)
		}
		if r == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return direction(c.SortDir, r)
	})
	return Paginate(out, c.Page, c.PageSize)
}

func activityMatches(a models.Activity, q string) bool {
	if contains(string(a.Action), q) || contains(deref(a.Notes), q) {
		return true
	}
	if a.Site != nil && (contains(a.Site.SiteNo, q) || contains(a.Site.Location, q)) {
		return true
	}
	if a.Client != nil && contains(a.Client.Name, q) {
		return true
	}
	return false
}

// compareOptionalDate orders open ends after every fixed date.
func compareOptionalDate(a, b *models.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(b.Time)
	}
}
