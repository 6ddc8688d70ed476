package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedCatalogs inserts the default role and rank catalogs when their tables
// are empty. Runs at every boot; existing rows are left untouched so
// operators can adjust thresholds without fighting the seeder.
func SeedCatalogs(db *gorm.DB) error {
	var roleCount int64
	if err := db.Model(&Role{}).Count(&roleCount).Error; err != nil {
		return err
	}
	if roleCount == 0 {
		roles := []Role{
			{Name: RoleUser, DisplayName: "User", Description: "Regular user with standard permissions", Color: "#6c757d",
				Permissions: datatypes.JSON(`["read","comment","like"]`), Level: 1},
			{Name: RoleModerator, DisplayName: "Moderator", Description: "Moderator with content moderation permissions", Color: "#ffc107",
				Permissions: datatypes.JSON(`["read","comment","like","moderate","delete_comments"]`), Level: 5},
			{Name: RoleAdmin, DisplayName: "Administrator", Description: "Full administrative access", Color: "#dc3545",
				Permissions: datatypes.JSON(`["read","comment","like","moderate","delete_comments","manage_users","admin"]`), Level: 10},
		}
		if err := db.Create(&roles).Error; err != nil {
			return err
		}
	}

	var rankCount int64
	if err := db.Model(&Rank{}).Count(&rankCount).Error; err != nil {
		return err
	}
	if rankCount == 0 {
		ranks := []Rank{
			{Name: "NEWBIE", DisplayName: "Newbie", Description: "New member of the community", Icon: "🌱", Color: "#6c757d",
				Requirements: datatypes.JSONMap{}, Level: 1, IsActive: true},
			{Name: "REGULAR", DisplayName: "Regular", Description: "Active community member", Icon: "⭐", Color: "#28a745",
				Requirements: datatypes.JSONMap{"xp": 50}, Level: 2, IsActive: true},
			{Name: "TRUSTED", DisplayName: "Trusted", Description: "Trusted community contributor", Icon: "💎", Color: "#17a2b8",
				Requirements: datatypes.JSONMap{"xp": 200}, Level: 3, IsActive: true},
			{Name: "STAR", DisplayName: "Star", Description: "Community star", Icon: "🌟", Color: "#ffc107",
				Requirements: datatypes.JSONMap{"xp": 1000}, Level: 4, IsActive: true},
			{Name: "LEGEND", DisplayName: "Legend", Description: "Community legend", Icon: "👑", Color: "#fd7e14",
				Requirements: datatypes.JSONMap{"xp": 5000}, Level: 5, IsActive: true},
			// VIP has no XP requirement; keeping it inactive makes it a
			// manually granted rank instead of an instant promotion target.
			{Name: "VIP", DisplayName: "VIP", Description: "Very Important Person", Icon: "💜", Color: "#6f42c1",
				Requirements: datatypes.JSONMap{}, Level: 10, IsActive: false},
		}
		if err := db.Create(&ranks).Error; err != nil {
			return err
		}
	}

	return nil
}
