package models

import (
	"encoding/json"
	"rental-location/internal/utils"
	"time"

	"github.com/uptrace/bun"
)

// RentalLogRequest is the body of a form submission.
type RentalLogRequest struct {
	Company     string `json:"company"`
	Zone        string `json:"zone"`
	Floor       string `json:"floor"`
	DetailPlace string `json:"detailPlace"`
	Content     string `json:"content"`
	RentalCount int    `json:"rentalCount"`
	WorkDate    string `json:"workDate"`
}

// RentalLog is one recorded equipment rental at a zone/floor for a company on a work date.
// WorkDate (YYYY-MM-DD) is the grouping key; Timestamp is the server-assigned creation instant.
type RentalLog struct {
	bun.BaseModel `bun:"table:rental_logs"`

	ID          string     `bun:"id,pk" json:"id"`
	Company     string     `bun:"company,notnull" json:"company"`
	Zone        string     `bun:"zone,notnull" json:"zone"`
	Floor       string     `bun:"floor,notnull" json:"floor"`
	DetailPlace string     `bun:"detail_place" json:"detailPlace,omitempty"`
	Content     string     `bun:"content,notnull" json:"content"`
	RentalCount int        `bun:"rental_count,notnull" json:"rentalCount"`
	WorkDate    string     `bun:"work_date,notnull" json:"workDate"`
	Timestamp   time.Time  `bun:"timestamp,notnull" json:"timestamp"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
	EditorID    string     `bun:"editor_id" json:"editorId"`
	EditorEmail string     `bun:"editor_email" json:"editorEmail"`
}

// MarshalJSON adds the HH:MM time column shown in the log table.
func (l RentalLog) MarshalJSON() ([]byte, error) {
	type rentalLog RentalLog
	return json.Marshal(struct {
		rentalLog
		Time string `json:"time"`
	}{rentalLog(l), utils.FormatTime(l.Timestamp)})
}

// RentalLogChange is the payload published when a log is created, updated or deleted.
type RentalLogChange struct {
	Action   string     `json:"action"`
	LogID    string     `json:"log_id"`
	WorkDate string     `json:"work_date"`
	Log      *RentalLog `json:"log,omitempty"`
	At       time.Time  `json:"at"`
}

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)
