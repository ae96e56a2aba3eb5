package models

import (
	"fmt"
	"time"
)

// DefaultRoleName is used when an index entry is written for a role
// without a name.
const DefaultRoleName = "Bénévole"

// Registration is the per-account index entry mirroring one volunteer name
// in one role. Entries are denormalized so an account's history can be
// listed without reading the games.
type Registration struct {
	AccountID     string    `json:"-" gorm:"primaryKey"`
	Key           string    `json:"key" gorm:"primaryKey;column:reg_key"`
	GameID        string    `json:"gameId" gorm:"index"`
	RoleID        RoleID    `json:"roleId"`
	RoleName      string    `json:"roleName"`
	GameDate      string    `json:"gameDate"`
	GameDateISO   string    `json:"gameDateISO"`
	GameTime      string    `json:"gameTime"`
	Location      string    `json:"location"`
	Team          string    `json:"team"`
	Opponent      string    `json:"opponent"`
	VolunteerName string    `json:"volunteerName"`
	CreatedAt     time.Time `json:"createdAt"`
}

func RegistrationKey(gameID string, roleID RoleID, name string) string {
	return fmt.Sprintf("%s_%s_%s", gameID, roleID, name)
}

// LegacyRegistrationKey is the key format used before one account could
// register several names in the same role.
func LegacyRegistrationKey(gameID string, roleID RoleID) string {
	return fmt.Sprintf("%s_%s", gameID, roleID)
}

// NewRegistration builds the index entry for name in role of game.
func NewRegistration(accountID string, game *Game, role *Role, name string) *Registration {
	roleName := role.Name
	if roleName == "" {
		roleName = DefaultRoleName
	}
	return &Registration{
		AccountID:     accountID,
		Key:           RegistrationKey(game.ID, role.ID, name),
		GameID:        game.ID,
		RoleID:        role.ID,
		RoleName:      roleName,
		GameDate:      game.Date,
		GameDateISO:   game.DateISO,
		GameTime:      game.Time,
		Location:      game.Location,
		Team:          game.Team,
		Opponent:      game.Opponent,
		VolunteerName: name,
	}
}
