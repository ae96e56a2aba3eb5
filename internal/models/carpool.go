package models

import (
	"fmt"
	"slices"
)

type CarpoolType string

const (
	Driver    CarpoolType = "driver"
	Passenger CarpoolType = "passenger"
)

type CarpoolStatus string

const (
	StatusAvailable CarpoolStatus = "available"
	StatusPending   CarpoolStatus = "pending"
	StatusMatched   CarpoolStatus = "matched"
)

type CarpoolEntry struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Type              CarpoolType   `json:"type"`
	Phone             string        `json:"phone,omitempty"`
	Seats             *int          `json:"seats,omitempty"`
	DepartureLocation string        `json:"departureLocation,omitempty"`
	Status            CarpoolStatus `json:"status,omitempty"`
	MatchedWith       []string      `json:"matchedWith,omitempty"`
	RequestedDriverID string        `json:"requestedDriverId,omitempty"`
}

// SeatCount is the number of seats offered by a driver or needed by a
// passenger. An unset or non-positive value counts as one.
func (e CarpoolEntry) SeatCount() int {
	if e.Seats == nil || *e.Seats < 1 {
		return 1
	}
	return *e.Seats
}

// CurrentStatus treats a missing status as available.
func (e CarpoolEntry) CurrentStatus() CarpoolStatus {
	if e.Status == "" {
		return StatusAvailable
	}
	return e.Status
}

// Reset puts a passenger back to the available state.
func (e *CarpoolEntry) Reset() {
	e.Status = StatusAvailable
	e.MatchedWith = nil
	e.RequestedDriverID = ""
}

func (e CarpoolEntry) Clone() CarpoolEntry {
	out := e
	if e.Seats != nil {
		seats := *e.Seats
		out.Seats = &seats
	}
	if e.MatchedWith != nil {
		out.MatchedWith = append([]string{}, e.MatchedWith...)
	}
	return out
}

// CheckCarpool verifies the matching invariants of a game's carpool list:
// passenger state agrees with its fields, driver back references are
// mutual and no driver carries more seats than offered.
func CheckCarpool(entries []CarpoolEntry) error {
	byID := make(map[string]CarpoolEntry, len(entries))
	for _, e := range entries {
		if _, dup := byID[e.ID]; dup {
			return fmt.Errorf("duplicate carpool entry %s", e.ID)
		}
		byID[e.ID] = e
	}

	for _, e := range entries {
		switch e.Type {
		case Passenger:
			if err := checkPassenger(e, byID); err != nil {
				return err
			}
		case Driver:
			used := 0
			for _, pid := range e.MatchedWith {
				p, ok := byID[pid]
				if !ok || p.Type != Passenger || p.CurrentStatus() != StatusMatched || !slices.Equal(p.MatchedWith, []string{e.ID}) {
					return fmt.Errorf("driver %s lists %s which is not matched with it", e.ID, pid)
				}
				used += p.SeatCount()
			}
			if used > e.SeatCount() {
				return fmt.Errorf("driver %s carries %d seats but offers %d", e.ID, used, e.SeatCount())
			}
		default:
			return fmt.Errorf("carpool entry %s has unknown type %q", e.ID, e.Type)
		}
	}
	return nil
}

func checkPassenger(p CarpoolEntry, byID map[string]CarpoolEntry) error {
	switch p.CurrentStatus() {
	case StatusAvailable:
		if len(p.MatchedWith) != 0 || p.RequestedDriverID != "" {
			return fmt.Errorf("available passenger %s still references a driver", p.ID)
		}
	case StatusPending:
		if len(p.MatchedWith) != 0 || p.RequestedDriverID == "" {
			return fmt.Errorf("pending passenger %s must reference exactly one requested driver", p.ID)
		}
		if d, ok := byID[p.RequestedDriverID]; !ok || d.Type != Driver {
			return fmt.Errorf("pending passenger %s requests unknown driver %s", p.ID, p.RequestedDriverID)
		}
	case StatusMatched:
		if len(p.MatchedWith) != 1 || p.RequestedDriverID != "" {
			return fmt.Errorf("matched passenger %s must reference exactly one driver", p.ID)
		}
		d, ok := byID[p.MatchedWith[0]]
		if !ok || d.Type != Driver || !slices.Contains(d.MatchedWith, p.ID) {
			return fmt.Errorf("matched passenger %s is not listed by driver %s", p.ID, p.MatchedWith[0])
		}
	default:
		return fmt.Errorf("passenger %s has unknown status %q", p.ID, p.Status)
	}
	return nil
}
