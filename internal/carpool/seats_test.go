package carpool

import (
	"testing"

	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSeatHelpers(t *testing.T) {
	entries := []models.CarpoolEntry{
		{ID: "d1", Type: models.Driver, Seats: seats(3), MatchedWith: []string{"p1"}},
		{ID: "d2", Type: models.Driver, MatchedWith: []string{"p2"}},
		{ID: "p1", Type: models.Passenger, Seats: seats(2), Status: models.StatusMatched, MatchedWith: []string{"d1"}},
		{ID: "p2", Type: models.Passenger, Status: models.StatusMatched, MatchedWith: []string{"d2"}},
		{ID: "p3", Type: models.Passenger, Status: models.StatusPending, RequestedDriverID: "d1"},
	}

	assert.Equal(t, 1, RemainingSeats(entries[0], entries))
	assert.Equal(t, 0, RemainingSeats(entries[1], entries), "unset driver seats count as one")

	drivers := AvailableDrivers(entries)
	assert.Len(t, drivers, 1)
	assert.Equal(t, "d1", drivers[0].ID)

	pending := PendingRequests("d1", entries)
	assert.Len(t, pending, 1)
	assert.Equal(t, "p3", pending[0].ID)

	matched := MatchedPassengers(entries[0], entries)
	assert.Len(t, matched, 1)
	assert.Equal(t, "p1", matched[0].ID)
}
