package validation

import (
	"strings"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Site validates a create payload.
func Site(in models.SiteInput) Violations {
	v := make(Violations)
	Required("siteNo", in.SiteNo, v)
	Required("location", in.Location, v)
	v.Merge(Struct(in))
	return v
}

// SiteUpdate validates an edit payload.
func SiteUpdate(in models.SiteUpdate) Violations {
	v := make(Violations)
	Required("location", in.Location, v)
	v.Merge(Struct(in))
	return v
}

// Client validates a create payload.
func Client(in models.ClientInput) Violations {
	v := make(Violations)
	Required("name", in.Name, v)
	Length("name", strings.TrimSpace(in.Name), 2, 200, v)
	v.Merge(Struct(in))
	OptionalEmail("email", in.Email, v)
	OptionalGST("gstNumber", in.GSTNumber, v)
	return v
}

// ClientUpdate validates an edit payload.
func ClientUpdate(in models.ClientUpdate) Violations {
	v := Struct(in)
	OptionalEmail("email", in.Email, v)
	OptionalGST("gstNumber", in.GSTNumber, v)
	return v
}

// Activity validates a create payload, including the rules that depend on
// the action and on the relation between dates.
func Activity(in models.ActivityInput) Violations {
	v := make(Violations)
	Required("siteId", in.SiteID, v)
	Required("clientId", in.ClientID, v)
	v.Merge(Struct(in))

	prev := Trimmed(in.PreviousClientID)
	switch {
	case in.Action == models.ActionShift && prev == "":
		v.Add("previousClientId", "required")
	case in.Action != models.ActionShift && prev != "":
		v.Add("previousClientId", "must_be_empty")
	}

	if in.StartDate.IsZero() {
		v.Add("startDate", "required")
	} else {
		if in.EndDate != nil && !in.EndDate.IsZero() && !in.EndDate.After(in.StartDate) {
			v.Add("endDate", "must_be_after_start")
		}
		if in.DateOfPurchase != nil && !in.DateOfPurchase.IsZero() && in.StartDate.Before(*in.DateOfPurchase) {
			v.Add("startDate", "before_purchase_date")
		}
	}

	if in.RatePerMonth != nil {
		RangeFloat("ratePerMonth", *in.RatePerMonth, 0, models.MaxRatePerMonth, v)
	}
	return v
}
