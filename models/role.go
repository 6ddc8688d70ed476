package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role names seeded at first boot.
const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

// Role is a catalog entry describing what a user is allowed to do.
// Administered externally; read-only from the request path.
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:32;uniqueIndex;not null" json:"name"`
	DisplayName string         `gorm:"size:50;not null" json:"display_name"`
	Description string         `gorm:"type:text" json:"description"`
	Color       string         `gorm:"size:7;default:'#6c757d'" json:"color"`
	Permissions datatypes.JSON `json:"permissions"`
	Level       int            `gorm:"default:0" json:"level"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Role) TableName() string {
	return "user_roles"
}
