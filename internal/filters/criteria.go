// Package filters keeps the list criteria of the console (search text,
// filters, sort, pagination) per entity and derives paged views from cached
// collections.
package filters

import (
	"slices"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Entity names a filterable list.
type Entity string

const (
	Sites      Entity = "sites"
	Clients    Entity = "clients"
	Activities Entity = "activities"
)

// Entities lists every filterable list.
var Entities = []Entity{Sites, Clients, Activities}

// Valid reports whether e is a known list.
func (e Entity) Valid() bool { return slices.Contains(Entities, e) }

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Site and activity status values.
const (
	StatusOccupied = "occupied"
	StatusVacant   = "vacant"
	StatusActive   = "active"
	StatusUpcoming = "upcoming"
	StatusEnded    = "ended"
)

// Criteria is the complete filter state of one list.
type Criteria struct {
	Search   string       `json:"search"`
	Type     string       `json:"type,omitempty"`
	Status   string       `json:"status,omitempty"`
	From     *models.Date `json:"from,omitempty"`
	To       *models.Date `json:"to,omitempty"`
	SortBy   string       `json:"sortBy"`
	SortDir  SortDir      `json:"sortDir"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// Patch is a partial update. Nil fields keep their current value; an empty
// string (or an empty date) clears the field.
type Patch struct {
	Search   *string      `json:"search,omitempty"`
	Type     *string      `json:"type,omitempty"`
	Status   *string      `json:"status,omitempty"`
	From     *models.Date `json:"from,omitempty"`
	To       *models.Date `json:"to,omitempty"`
	SortBy   *string      `json:"sortBy,omitempty"`
	SortDir  *SortDir     `json:"sortDir,omitempty"`
	Page     *int         `json:"page,omitempty"`
	PageSize *int         `json:"pageSize,omitempty"`
}

type listRules struct {
	sortBy   string
	sortDir  SortDir
	columns  []string
	types    []string
	statuses []string
	dates    bool
}

var rulesFor = map[Entity]listRules{
	Sites: {
		sortBy:   "siteNo",
		sortDir:  Asc,
		columns:  []string{"siteNo", "location", "type", "size", "createdAt"},
		types:    []string{string(models.SiteTypeUnipole), string(models.SiteTypeHoarding)},
		statuses: []string{StatusOccupied, StatusVacant},
	},
	Clients: {
		sortBy:  "name",
		sortDir: Asc,
		columns: []string{"name", "email", "createdAt"},
	},
	Activities: {
		sortBy:   "startDate",
		sortDir:  Desc,
		columns:  []string{"startDate", "endDate", "ratePerMonth", "action", "createdAt"},
		types:    []string{string(models.ActionNew), string(models.ActionShift), string(models.ActionFlexChange)},
		statuses: []string{StatusActive, StatusUpcoming, StatusEnded},
		dates:    true,
	},
}

// Defaults returns the documented starting criteria of e.
func Defaults(e Entity, pageSize int) Criteria {
	s := rulesFor[e]
	return Criteria{SortBy: s.sortBy, SortDir: s.sortDir, Page: 1, PageSize: pageSize}
}

// Merge applies the non-nil fields of p to c. It never touches fields that p
// leaves nil.
func (c Criteria) Merge(p Patch) Criteria {
	if p.Search != nil {
		c.Search = *p.Search
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.From != nil {
		c.From = dateOrNil(*p.From)
	}
	if p.To != nil {
		c.To = dateOrNil(*p.To)
	}
	if p.SortBy != nil {
		c.SortBy = *p.SortBy
	}
	if p.SortDir != nil {
		c.SortDir = *p.SortDir
	}
	if p.Page != nil {
		c.Page = *p.Page
	}
	if p.PageSize != nil {
		c.PageSize = *p.PageSize
	}
	return c
}

func dateOrNil(d models.Date) *models.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

// Validate checks p against the columns and values e accepts and returns
// field-scoped codes.
func (p Patch) Validate(e Entity, pageSizes []int) map[string]string {
	s := rulesFor[e]
	v := map[string]string{}
	if p.Type != nil && *p.Type != "" && !slices.Contains(s.types, *p.Type) {
		v["type"] = "invalid_choice"
	}
	if p.Status != nil && *p.Status != "" && !slices.Contains(s.statuses, *p.Status) {
		v["status"] = "invalid_choice"
	}
	if !s.dates {
		if p.From != nil && !p.From.IsZero() {
			v["from"] = "must_be_empty"
		}
		if p.To != nil && !p.To.IsZero() {
			v["to"] = "must_be_empty"
		}
	}
	if p.SortBy != nil && !slices.Contains(s.columns, *p.SortBy) {
		v["sortBy"] = "invalid_choice"
	}
	if p.SortDir != nil && *p.SortDir != Asc && *p.SortDir != Desc {
		v["sortDir"] = "invalid_choice"
	}
	if p.Page != nil && *p.Page < 1 {
		v["page"] = "out_of_range"
	}
	if p.PageSize != nil && !slices.Contains(pageSizes, *p.PageSize) {
		v["pageSize"] = "invalid_choice"
	}
	return v
}
