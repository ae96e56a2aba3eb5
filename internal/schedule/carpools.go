package schedule

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/samber/lo"
)

// CarpoolRegistration is one carpool entry of a user together with the game
// it belongs to.
type CarpoolRegistration struct {
	ID                string               `json:"id"`
	GameID            string               `json:"gameId"`
	GameDateISO       string               `json:"gameDateISO"`
	GameDate          string               `json:"gameDate"`
	GameTime          string               `json:"gameTime"`
	Team              string               `json:"team"`
	Opponent          string               `json:"opponent"`
	Location          string               `json:"location"`
	Type              models.CarpoolType   `json:"type"`
	Status            models.CarpoolStatus `json:"status"`
	Seats             *int                 `json:"seats,omitempty"`
	DepartureLocation string               `json:"departureLocation,omitempty"`

	MatchedDriverName  string `json:"matchedDriverName,omitempty"`
	MatchedDriverPhone string `json:"matchedDriverPhone,omitempty"`

	MatchedPassengersCount int `json:"matchedPassengersCount,omitempty"`
	PendingRequestsCount   int `json:"pendingRequestsCount,omitempty"`
}

type CarpoolStats struct {
	Total       int `json:"totalCarpools"`
	AsDriver    int `json:"asDriver"`
	AsPassenger int `json:"asPassenger"`
}

// UserCarpools finds, in every game, the first carpool entry whose name
// matches displayName case-insensitively. Results are ordered by date.
func UserCarpools(games []models.Game, displayName string) []CarpoolRegistration {
	if displayName == "" {
		return nil
	}
	var out []CarpoolRegistration
	for _, g := range games {
		entry, ok := lo.Find(g.Carpool, func(e models.CarpoolEntry) bool {
			return strings.EqualFold(e.Name, displayName)
		})
		if !ok {
			continue
		}

		reg := CarpoolRegistration{
			ID:                entry.ID,
			GameID:            g.ID,
			GameDateISO:       g.DateISO,
			GameDate:          g.Date,
			GameTime:          g.Time,
			Team:              g.Team,
			Opponent:          g.Opponent,
			Location:          g.Location,
			Type:              entry.Type,
			Status:            entry.CurrentStatus(),
			Seats:             entry.Seats,
			DepartureLocation: entry.DepartureLocation,
		}

		switch entry.Type {
		case models.Driver:
			reg.MatchedPassengersCount = len(entry.MatchedWith)
			reg.PendingRequestsCount = lo.CountBy(g.Carpool, func(e models.CarpoolEntry) bool {
				return e.Type == models.Passenger && e.Status == models.StatusPending && e.RequestedDriverID == entry.ID
			})
		case models.Passenger:
			if entry.Status == models.StatusMatched && len(entry.MatchedWith) > 0 {
				if driver, ok := lo.Find(g.Carpool, func(e models.CarpoolEntry) bool {
					return e.ID == entry.MatchedWith[0]
				}); ok {
					reg.MatchedDriverName = driver.Name
					reg.MatchedDriverPhone = driver.Phone
				}
			}
		}

		out = append(out, reg)
	}
	slices.SortStableFunc(out, func(a, b CarpoolRegistration) int {
		return cmp.Compare(a.GameDateISO, b.GameDateISO)
	})
	return out
}

// Upcoming keeps the registrations whose game has not finished at now. A
// game is considered over three hours after kick-off.
func Upcoming(regs []CarpoolRegistration, now time.Time) []CarpoolRegistration {
	return lo.Filter(regs, func(r CarpoolRegistration, _ int) bool {
		return IsUpcoming(r.GameDateISO, r.GameTime, now)
	})
}

func IsUpcoming(dateISO, kickOff string, now time.Time) bool {
	if dateISO == "" {
		return true
	}
	today := now.Format(time.DateOnly)
	if dateISO != today {
		return dateISO > today
	}
	if kickOff == "" {
		return true
	}
	parts := timeSeparator.Split(kickOff, -1)
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return true
	}
	m := 0
	if len(parts) > 1 {
		if v, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			m = v
		}
	}
	end := (h+3)*60 + m
	return now.Hour()*60+now.Minute() <= end
}

func Stats(regs []CarpoolRegistration) CarpoolStats {
	return CarpoolStats{
		Total: len(regs),
		AsDriver: lo.CountBy(regs, func(r CarpoolRegistration) bool {
			return r.Type == models.Driver
		}),
		AsPassenger: lo.CountBy(regs, func(r CarpoolRegistration) bool {
			return r.Type == models.Passenger
		}),
	}
}
