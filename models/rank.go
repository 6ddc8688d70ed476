package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Rank is a reputation tier a user can be promoted into. Levels are unique
// and strictly ordered; higher is better. The catalog is seeded/administered
// externally and treated as read-only by the promotion engine.
type Rank struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:32;uniqueIndex;not null" json:"name"`
	DisplayName  string            `gorm:"size:50;not null" json:"display_name"`
	Description  string            `gorm:"type:text" json:"description"`
	Icon         string            `gorm:"size:10;default:'👤'" json:"icon"`
	Color        string            `gorm:"size:7;default:'#28a745'" json:"color"`
	Requirements datatypes.JSONMap `json:"requirements"`
	Level        int               `gorm:"uniqueIndex;default:0" json:"level"`
	IsActive     bool              `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Rank) TableName() string {
	return "user_ranks"
}

// XPRequirement reads the "xp" threshold from the requirements mapping,
// defaulting to 0 when absent. Other requirement keys are ignored. Values
// arrive as json.Number once the row has been through the database, as
// plain ints when freshly seeded.
func (r Rank) XPRequirement() int {
	v, ok := r.Requirements["xp"]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	default:
		return 0
	}
}
