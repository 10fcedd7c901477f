package derive

import (
	"math"
	"time"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Rate returns the usable monthly rate of a, or 0 when it is absent or not a
// finite number.
func Rate(a models.Activity) float64 {
	if a.RatePerMonth == nil {
		return 0
	}
	r := *a.RatePerMonth
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// ActivityRevenue is the monthly rate times the billed months.
func ActivityRevenue(a models.Activity, now time.Time) float64 {
	rate := Rate(a)
	if rate == 0 {
		return 0
	}
	return rate * float64(Months(a, now))
}

// IsActive reports whether today falls inside the activity's range. Both
// ends are inclusive and an open end never expires.
func IsActive(a models.Activity, today time.Time) bool {
	d := models.DateOf(today)
	if d.Before(a.StartDate) {
		return false
	}
	return a.EndDate == nil || !d.After(*a.EndDate)
}

// MonthlyRunRate sums the monthly rates of the activities active today.
func MonthlyRunRate(acts []models.Activity, today time.Time) float64 {
	var total float64
	for _, a := range acts {
		if IsActive(a, today) {
			total += Rate(a)
		}
	}
	return total
}

// ExpiringWithin returns active activities whose end date falls within the
// next days days, soonest first.
func ExpiringWithin(acts []models.Activity, today time.Time, days int) []models.Activity {
	from := models.DateOf(today)
	until := models.Date{Time: from.AddDate(0, 0, days)}
	out := make([]models.Activity, 0)
	for _, a := range acts {
		if a.EndDate == nil || !IsActive(a, today) {
			continue
		}
		if !a.EndDate.After(until) {
			out = append(out, a)
		}
	}
	sortStable(out, func(x, y models.Activity) bool {
		if !x.EndDate.Equal(*y.EndDate) {
			return x.EndDate.Before(*y.EndDate)
		}
		return x.ID < y.ID
	})
	return out
}
