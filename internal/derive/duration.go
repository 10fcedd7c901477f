// Package derive holds pure functions computing metrics from entity
// collections. Nothing here reads the clock: "now" is always a parameter.
package derive

import (
	"math"
	"time"

	"github.com/diewo77/go-hoardings/internal/models"
)

// DaysPerMonth is the billing month length used for durations.
const DaysPerMonth = 30

// ActivityDuration returns the billed months between start and end, using now
// when end is nil. Partial days and partial months both round up, so any
// non-zero span is at least one month.
func ActivityDuration(start time.Time, end *time.Time, now time.Time) int {
	stop := now
	if end != nil {
		stop = *end
	}
	diff := stop.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return 0
	}
	days := math.Ceil(diff.Hours() / 24)
	return int(math.Ceil(days / DaysPerMonth))
}

// Months is ActivityDuration applied to an activity's date range.
func Months(a models.Activity, now time.Time) int {
	var end *time.Time
	if a.EndDate != nil {
		e := a.EndDate.Time
		end = &e
	}
	return ActivityDuration(a.StartDate.Time, end, now)
}
