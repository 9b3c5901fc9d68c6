package models

import (
	"time"

	"github.com/uptrace/bun"
)

const SettingsID = "config"

type Settings struct {
	bun.BaseModel `bun:"table:settings"`

	ID              string    `bun:"id,pk" json:"-"`
	MaxRentalCount  int       `bun:"max_rental_count" json:"maxRentalCount"`
	AllowAnonymous  bool      `bun:"allow_anonymous" json:"allowAnonymous"`
	RequireApproval bool      `bun:"require_approval" json:"requireApproval"`
	UpdatedAt       time.Time `bun:"updated_at" json:"updatedAt"`
}

// DefaultSettings is used whenever no settings row has been stored yet.
func DefaultSettings() Settings {
	return Settings{
		ID:              SettingsID,
		MaxRentalCount:  100,
		AllowAnonymous:  true,
		RequireApproval: false,
	}
}
