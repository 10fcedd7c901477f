package models

import "time"

// Preference is one persisted console setting. Rows are scoped by a fixed
// namespace so several consoles can share one database.
type Preference struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Namespace string    `gorm:"size:50;not null;uniqueIndex:idx_pref_ns_key" json:"namespace"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_pref_ns_key" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
