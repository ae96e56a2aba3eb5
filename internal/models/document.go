package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameDocument is the stored form of a Game. The whole game is kept as one
// JSON document guarded by Version.
type GameDocument struct {
	ID        string `gorm:"primaryKey"`
	DateISO   string `gorm:"index"`
	Version   int64
	Data      datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}
