package models

import (
	"time"

	"gorm.io/datatypes"
)

// PushNotification records one dispatch request. SentCount is the number of
// active subscriptions at send time; SuccessCount is bookkeeping reported by
// the dispatcher, not a delivery guarantee.
type PushNotification struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string `gorm:"type:varchar(255);not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`
	Icon  string `gorm:"type:text" json:"icon"`
	Badge string `gorm:"type:text" json:"badge"`
	Tag   string `gorm:"type:varchar(128)" json:"tag"`

	Data datatypes.JSON `json:"data"`

	SentCount    int64 `gorm:"default:0" json:"sent_count"`
	SuccessCount int64 `gorm:"default:0" json:"success_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
