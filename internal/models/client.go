package models

import "time"

// Client is a customer renting sites.
type Client struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	GSTNumber *string `json:"gstNumber,omitempty"`
	Notes     *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClientInput is the create payload.
type ClientInput struct {
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	GSTNumber *string `json:"gstNumber,omitempty"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ClientUpdate carries the editable fields; the name is immutable.
type ClientUpdate struct {
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	GSTNumber *string `json:"gstNumber,omitempty"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Apply returns a copy of c with the update applied.
func (c Client) Apply(u ClientUpdate) Client {
	c.Email = u.Email
	c.Phone = u.Phone
	c.Address = u.Address
	c.GSTNumber = u.GSTNumber
	c.Notes = u.Notes
	return c
}

// ClientRef is the compact client embedded in activity payloads.
type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
