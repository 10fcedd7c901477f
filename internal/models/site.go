package models

import "time"

// SiteType is the physical kind of advertising structure.
type SiteType string

const (
	SiteTypeUnipole  SiteType = "unipole"
	SiteTypeHoarding SiteType = "hoarding"
)

// SiteTypes lists the accepted site types.
var SiteTypes = []SiteType{SiteTypeUnipole, SiteTypeHoarding}

// Site is a physical advertising location owned by the backend.
type Site struct {
	ID       string   `json:"id"`
	SiteNo   string   `json:"siteNo"`
	Location string   `json:"location"`
	Type     SiteType `json:"type"`
	Size     string   `json:"size"`
	Notes    *string  `json:"notes,omitempty"`

	// ActiveClientID is set when a client currently occupies the site.
	ActiveClientID *string `json:"activeClientId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Occupied reports whether a client currently occupies the site.
func (s Site) Occupied() bool {
	return s.ActiveClientID != nil && *s.ActiveClientID != ""
}

// SiteInput is the create payload.
type SiteInput struct {
	SiteNo   string   `json:"siteNo" validate:"required,max=50,siteno"`
	Location string   `json:"location" validate:"required,min=3,max=200"`
	Type     SiteType `json:"type" validate:"required,oneof=unipole hoarding"`
	Size     string   `json:"size" validate:"max=50"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// SiteUpdate carries the editable fields; the site number is immutable.
type SiteUpdate struct {
	Location string   `json:"location" validate:"required,min=3,max=200"`
	Type     SiteType `json:"type" validate:"required,oneof=unipole hoarding"`
	Size     string   `json:"size" validate:"max=50"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Apply returns a copy of s with the update applied.
func (s Site) Apply(u SiteUpdate) Site {
	s.Location = u.Location
	s.Type = u.Type
	s.Size = u.Size
	s.Notes = u.Notes
	return s
}

// SiteRef is the compact site embedded in activity payloads.
type SiteRef struct {
	ID       string   `json:"id"`
	SiteNo   string   `json:"siteNo"`
	Location string   `json:"location,omitempty"`
	Type     SiteType `json:"type,omitempty"`
}
