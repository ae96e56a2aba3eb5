package schedule

import (
	"slices"

	"github.com/nickdesi/scba-benevolat/internal/models"
)

// Slot identifies one role of one game.
type Slot struct {
	GameID string
	RoleID models.RoleID
}

// RegistrationsMap groups an account's index entries by slot, listing the
// volunteer names the account registered there.
func RegistrationsMap(regs []models.Registration) map[Slot][]string {
	out := make(map[Slot][]string)
	for _, r := range regs {
		slot := Slot{GameID: r.GameID, RoleID: r.RoleID}
		if !slices.Contains(out[slot], r.VolunteerName) {
			out[slot] = append(out[slot], r.VolunteerName)
		}
	}
	return out
}
