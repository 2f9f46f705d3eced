package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserAction is a single recorded visitor event. Rows are append-only: the
// ingestion path inserts them and the reporting path aggregates them, nothing
// updates or deletes them afterwards.
type UserAction struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string         `gorm:"type:varchar(128);index" json:"session_id"`
	ActionType    string         `gorm:"type:varchar(64);index" json:"action_type"`
	ActionDetails datatypes.JSON `json:"action_details"`
	PageURL       string         `gorm:"type:text" json:"page_url"`
	Referrer      string         `gorm:"type:text" json:"referrer"`
	UserAgent     string         `gorm:"type:text" json:"user_agent"`

	// IPAddress is always populated; the ingestion handler falls back to
	// "0.0.0.0" when no forwarding header is present.
	IPAddress string `gorm:"type:varchar(64)" json:"ip_address"`

	// Timestamp is assigned by the server at insert time. The reporting
	// queries range-scan on it, so it must stay indexed.
	Timestamp time.Time `gorm:"column:timestamp;index;autoCreateTime" json:"timestamp"`
}
