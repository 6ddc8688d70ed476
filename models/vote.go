package models

import "time"

// Vote is one ballot in a named poll. A user gets one row per poll; casting
// again updates the option.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index;uniqueIndex:uq_poll_user" json:"user_id"`
	PollName  string    `gorm:"size:100;index;uniqueIndex:uq_poll_user;not null" json:"poll_name"`
	Option    string    `gorm:"size:200;not null" json:"option"`
	IPAddress string    `gorm:"size:45" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
