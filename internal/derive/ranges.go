package derive

import (
	"sort"

	"github.com/diewo77/go-hoardings/internal/models"
)

// FilterByStartRange keeps activities whose start date lies in [from, to].
// A nil bound is open.
func FilterByStartRange(acts []models.Activity, from, to *models.Date) []models.Activity {
	out := make([]models.Activity, 0, len(acts))
	for _, a := range acts {
		if from != nil && a.StartDate.Before(*from) {
			continue
		}
		if to != nil && a.StartDate.After(*to) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// SortByStartDesc returns a copy ordered by descending start date, ties
// broken by ascending id.
func SortByStartDesc(acts []models.Activity) []models.Activity {
	out := make([]models.Activity, len(acts))
	copy(out, acts)
	sortStable(out, func(x, y models.Activity) bool {
		if !x.StartDate.Equal(y.StartDate) {
			return x.StartDate.After(y.StartDate)
		}
		return x.ID < y.ID
	})
	return out
}

// Recent returns the n most recent activities by start date.
func Recent(acts []models.Activity, n int) []models.Activity {
	sorted := SortByStartDesc(acts)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func sortStable(acts []models.Activity, less func(x, y models.Activity) bool) {
	sort.SliceStable(acts, func(i, j int) bool { return less(acts[i], acts[j]) })
}
