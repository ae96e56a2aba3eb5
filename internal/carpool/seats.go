package carpool

import (
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/samber/lo"
)

// RemainingSeats is the driver's seats minus the seats of every passenger
// it already carries.
func RemainingSeats(driver models.CarpoolEntry, entries []models.CarpoolEntry) int {
	used := 0
	for _, id := range driver.MatchedWith {
		if p, ok := lo.Find(entries, func(e models.CarpoolEntry) bool { return e.ID == id }); ok {
			used += p.SeatCount()
		}
	}
	return driver.SeatCount() - used
}

// AvailableDrivers lists the drivers with at least one free seat.
func AvailableDrivers(entries []models.CarpoolEntry) []models.CarpoolEntry {
	return lo.Filter(entries, func(e models.CarpoolEntry, _ int) bool {
		return e.Type == models.Driver && RemainingSeats(e, entries) > 0
	})
}

// PendingRequests lists the passengers waiting for driverID to answer.
func PendingRequests(driverID string, entries []models.CarpoolEntry) []models.CarpoolEntry {
	return lo.Filter(entries, func(e models.CarpoolEntry, _ int) bool {
		return e.Type == models.Passenger && e.Status == models.StatusPending && e.RequestedDriverID == driverID
	})
}

// MatchedPassengers lists the passengers riding with driver.
func MatchedPassengers(driver models.CarpoolEntry, entries []models.CarpoolEntry) []models.CarpoolEntry {
	return lo.Filter(entries, func(e models.CarpoolEntry, _ int) bool {
		return lo.Contains(driver.MatchedWith, e.ID)
	})
}
