package models

import "time"

// PushSubscription is one browser push channel. The endpoint is the natural
// key: subscribing again with a known endpoint refreshes LastUsed instead of
// inserting a duplicate row.
type PushSubscription struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Endpoint string `gorm:"type:varchar(512);uniqueIndex;not null" json:"endpoint"`

	// P256DH and Auth are the client-generated encryption keys. They are
	// opaque here and only handed to the Web Push dispatcher.
	P256DH string `gorm:"column:p256dh;type:text;not null" json:"p256dh"`
	Auth   string `gorm:"type:text;not null" json:"auth"`

	UserAgent string `gorm:"type:text" json:"user_agent"`
	IPAddress string `gorm:"type:varchar(64)" json:"ip_address"`

	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	LastUsed  time.Time `gorm:"autoCreateTime" json:"last_used"`
	CreatedAt time.Time `json:"created_at"`
}
