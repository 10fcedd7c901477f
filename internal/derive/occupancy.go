package derive

import (
	"time"

	"github.com/diewo77/go-hoardings/internal/models"
)

// OccupancyRate is the percentage of sites with an active client. An empty
// input yields 0.
func OccupancyRate(sites []models.Site) float64 {
	if len(sites) == 0 {
		return 0
	}
	occupied := 0
	for _, s := range sites {
		if s.Occupied() {
			occupied++
		}
	}
	return 100 * float64(occupied) / float64(len(sites))
}

// AnnotateOccupancy returns copies of sites whose ActiveClientID is derived
// from the activities active today. When several activities on one site are
// active, the one with the latest start wins.
func AnnotateOccupancy(sites []models.Site, acts []models.Activity, today time.Time) []models.Site {
	current := make(map[string]models.Activity)
	for _, a := range acts {
		if !IsActive(a, today) {
			continue
		}
		prev, ok := current[a.SiteID]
		if !ok || a.StartDate.After(prev.StartDate) || (a.StartDate.Equal(prev.StartDate) && a.ID > prev.ID) {
			current[a.SiteID] = a
		}
	}
	out := make([]models.Site, len(sites))
	for i, s := range sites {
		s.ActiveClientID = nil
		if a, ok := current[s.ID]; ok {
			id := a.ClientID
			s.ActiveClientID = &id
		}
		out[i] = s
	}
	return out
}

// FillOccupancy is AnnotateOccupancy for sites the backend left without an
// ActiveClientID. Sites that already carry one are kept as they are.
func FillOccupancy(sites []models.Site, acts []models.Activity, today time.Time) []models.Site {
	derived := AnnotateOccupancy(sites, acts, today)
	for i, s := range sites {
		if s.Occupied() {
			derived[i] = s
		}
	}
	return derived
}
