package models

import "time"

// ActivityAction is the kind of booking an activity records.
type ActivityAction string

const (
	ActionNew        ActivityAction = "new"
	ActionShift      ActivityAction = "shift"
	ActionFlexChange ActivityAction = "flex_change"
)

// MaxRatePerMonth bounds the monthly rate of an activity.
const MaxRatePerMonth = 10_000_000

// Activity links a client to a site over a date range.
type Activity struct {
	ID               string         `json:"id"`
	Action           ActivityAction `json:"action"`
	SiteID           string         `json:"siteId"`
	ClientID         string         `json:"clientId"`
	PreviousClientID *string        `json:"previousClientId,omitempty"`

	DateOfPurchase *Date `json:"dateOfPurchase,omitempty"`
	StartDate      Date  `json:"startDate"`
	EndDate        *Date `json:"endDate,omitempty"`

	RatePerMonth *float64 `json:"ratePerMonth,omitempty"`
	TotalMonths  *int     `json:"totalMonths,omitempty"`
	TotalAmount  *float64 `json:"totalAmount,omitempty"`
	PrintingCost *float64 `json:"printingCost,omitempty"`
	MountingCost *float64 `json:"mountingCost,omitempty"`
	Notes        *string  `json:"notes,omitempty"`

	Site           *SiteRef   `json:"site,omitempty"`
	Client         *ClientRef `json:"client,omitempty"`
	PreviousClient *ClientRef `json:"previousClient,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActivityInput is the create payload.
type ActivityInput struct {
	Action           ActivityAction `json:"action" validate:"required,oneof=new shift flex_change"`
	SiteID           string         `json:"siteId" validate:"required"`
	ClientID         string         `json:"clientId" validate:"required"`
	PreviousClientID *string        `json:"previousClientId,omitempty"`
	DateOfPurchase   *Date          `json:"dateOfPurchase,omitempty"`
	StartDate        Date           `json:"startDate"`
	EndDate          *Date          `json:"endDate,omitempty"`
	RatePerMonth     *float64       `json:"ratePerMonth,omitempty"`
	PrintingCost     *float64       `json:"printingCost,omitempty" validate:"omitempty,gte=0"`
	MountingCost     *float64       `json:"mountingCost,omitempty" validate:"omitempty,gte=0"`
	Notes            *string        `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ActivityUpdate carries the editable fields; the site and client references
// are fixed once the activity exists.
type ActivityUpdate struct {
	Action           ActivityAction `json:"action"`
	PreviousClientID *string        `json:"previousClientId,omitempty"`
	DateOfPurchase   *Date          `json:"dateOfPurchase,omitempty"`
	StartDate        Date           `json:"startDate"`
	EndDate          *Date          `json:"endDate,omitempty"`
	RatePerMonth     *float64       `json:"ratePerMonth,omitempty"`
	PrintingCost     *float64       `json:"printingCost,omitempty"`
	MountingCost     *float64       `json:"mountingCost,omitempty"`
	Notes            *string        `json:"notes,omitempty"`
}

// Input returns the create-shaped view of a, used to re-validate edits.
func (a Activity) Input() ActivityInput {
	return ActivityInput{
		Action:           a.Action,
		SiteID:           a.SiteID,
		ClientID:         a.ClientID,
		PreviousClientID: a.PreviousClientID,
		DateOfPurchase:   a.DateOfPurchase,
		StartDate:        a.StartDate,
		EndDate:          a.EndDate,
		RatePerMonth:     a.RatePerMonth,
		PrintingCost:     a.PrintingCost,
		MountingCost:     a.MountingCost,
		Notes:            a.Notes,
	}
}

// Apply returns a copy of a with the update applied. Derived totals are
// dropped because the backend recomputes them.
func (a Activity) Apply(u ActivityUpdate) Activity {
	a.Action = u.Action
	a.PreviousClientID = u.PreviousClientID
	a.DateOfPurchase = u.DateOfPurchase
	a.StartDate = u.StartDate
	a.EndDate = u.EndDate
	a.RatePerMonth = u.RatePerMonth
	a.PrintingCost = u.PrintingCost
	a.MountingCost = u.MountingCost
	a.Notes = u.Notes
	a.TotalMonths = nil
	a.TotalAmount = nil
	return a
}
