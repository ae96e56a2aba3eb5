package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	DiscordID   string `gorm:"uniqueIndex"`
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
}

// Name is the name shown next to volunteer entries.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
