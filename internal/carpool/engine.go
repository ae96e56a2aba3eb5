// Package carpool matches passengers with drivers inside a game. Every
// operation is a single transaction over the game that owns the entries.
package carpool

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"go.uber.org/zap"
)

type Transactor interface {
	RunTransaction(ctx context.Context, fn func(tx *store.Tx) error) error
}

type Engine struct {
	store  Transactor
	logger *zap.Logger
}

func NewEngine(s Transactor, logger *zap.Logger) *Engine {
	return &Engine{store: s, logger: logger.Named("carpool")}
}

// Entry is what a driver or passenger submits.
type Entry struct {
	Name              string
	Type              models.CarpoolType
	Phone             string
	Seats             *int
	DepartureLocation string
}

func (in Entry) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if in.Type != models.Driver && in.Type != models.Passenger {
		return apperror.ValidationFailed("type", "type must be driver or passenger")
	}
	if in.Seats != nil && *in.Seats < 1 {
		return apperror.ValidationFailed("seats", "seats must be at least 1")
	}
	return nil
}

// Submit adds a driver offer or passenger request to a game.
func (e *Engine) Submit(ctx context.Context, gameID string, in Entry) (*models.CarpoolEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry := models.CarpoolEntry{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(in.Name),
		Type:              in.Type,
		Phone:             in.Phone,
		Seats:             in.Seats,
		DepartureLocation: in.DepartureLocation,
		Status:            models.StatusAvailable,
	}
	if entry.Type == models.Driver {
		entry.MatchedWith = []string{}
	}

	err := e.update(ctx, gameID, func(g *models.Game) error {
		g.Carpool = append(g.Carpool, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("carpool entry submitted",
		zap.String("game", gameID),
		zap.String("entry", entry.ID),
		zap.String("type", string(entry.Type)))
	return &entry, nil
}

// RequestSeat moves an available passenger to pending on driverID. The
// driver is not touched; competing requests are settled by Accept.
func (e *Engine) RequestSeat(ctx context.Context, gameID, passengerID, driverID string) (*models.Game, error) {
	return e.run(ctx, "seat requested", gameID, func(g *models.Game) error {
		p, err := passenger(g, passengerID)
		if err != nil {
			return err
		}
		if _, err := driver(g, driverID); err != nil {
			return err
		}
		if p.CurrentStatus() != models.StatusAvailable {
			return apperror.InvalidState("passenger", passengerID, "is not available")
		}
		p.Status = models.StatusPending
		p.RequestedDriverID = driverID
		return nil
	})
}

// Accept matches a passenger pending on driverID if enough seats remain.
func (e *Engine) Accept(ctx context.Context, gameID, driverID, passengerID string) (*models.Game, error) {
	return e.run(ctx, "passenger accepted", gameID, func(g *models.Game) error {
		d, p, err := pendingPair(g, driverID, passengerID)
		if err != nil {
			return err
		}
		remaining := RemainingSeats(*d, g.Carpool)
		if remaining < p.SeatCount() {
			return apperror.CapacityExceeded("driver", driverID, p.SeatCount(), max(remaining, 0))
		}
		p.Status = models.StatusMatched
		p.MatchedWith = []string{driverID}
		p.RequestedDriverID = ""
		d.MatchedWith = append(d.MatchedWith, passengerID)
		return nil
	})
}

// Reject sends a passenger pending on driverID back to available.
func (e *Engine) Reject(ctx context.Context, gameID, driverID, passengerID string) (*models.Game, error) {
	return e.run(ctx, "passenger rejected", gameID, func(g *models.Game) error {
		_, p, err := pendingPair(g, driverID, passengerID)
		if err != nil {
			return err
		}
		p.Reset()
		return nil
	})
}

// Cancel withdraws a passenger's pending request.
func (e *Engine) Cancel(ctx context.Context, gameID, passengerID string) (*models.Game, error) {
	return e.run(ctx, "request cancelled", gameID, func(g *models.Game) error {
		p, err := passenger(g, passengerID)
		if err != nil {
			return err
		}
		if p.CurrentStatus() != models.StatusPending {
			return apperror.InvalidState("passenger", passengerID, "has no pending request")
		}
		p.Reset()
		return nil
	})
}

// Remove deletes an entry. A removed passenger is pruned from its driver; a
// removed driver releases every passenger matched with or pending on it.
func (e *Engine) Remove(ctx context.Context, gameID, entryID string) (*models.Game, error) {
	return e.run(ctx, "carpool entry removed", gameID, func(g *models.Game) error {
		removed := g.Entry(entryID)
		if removed == nil {
			return apperror.NotFound("carpool entry", entryID)
		}
		target := *removed
		g.Carpool = slices.DeleteFunc(g.Carpool, func(c models.CarpoolEntry) bool { return c.ID == entryID })

		switch target.Type {
		case models.Passenger:
			for i := range g.Carpool {
				c := &g.Carpool[i]
				if c.Type == models.Driver {
					c.MatchedWith = slices.DeleteFunc(c.MatchedWith, func(id string) bool { return id == entryID })
				}
			}
		case models.Driver:
			for i := range g.Carpool {
				c := &g.Carpool[i]
				if c.Type != models.Passenger {
					continue
				}
				if slices.Contains(c.MatchedWith, entryID) || (c.Status == models.StatusPending && c.RequestedDriverID == entryID) {
					c.Reset()
				}
			}
		}
		return nil
	})
}

func (e *Engine) run(ctx context.Context, msg, gameID string, mutate func(g *models.Game) error) (*models.Game, error) {
	var committed *models.Game
	err := e.update(ctx, gameID, func(g *models.Game) error {
		if err := mutate(g); err != nil {
			return err
		}
		committed = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug(msg, zap.String("game", gameID))
	if err := models.CheckCarpool(committed.Carpool); err != nil {
		e.logger.Error("carpool invariants broken", zap.String("game", gameID), zap.Error(err))
	}
	return committed, nil
}

func (e *Engine) update(ctx context.Context, gameID string, mutate func(g *models.Game) error) error {
	return e.store.RunTransaction(ctx, func(tx *store.Tx) error {
		g, err := tx.Game(gameID)
		if err != nil {
			return err
		}
		if err := mutate(g); err != nil {
			return err
		}
		return tx.PutGame(g)
	})
}

func passenger(g *models.Game, id string) (*models.CarpoolEntry, error) {
	p := g.Entry(id)
	if p == nil {
		return nil, apperror.NotFound("carpool entry", id)
	}
	if p.Type != models.Passenger {
		return nil, apperror.InvalidState("carpool entry", id, "is not a passenger")
	}
	return p, nil
}

func driver(g *models.Game, id string) (*models.CarpoolEntry, error) {
	d := g.Entry(id)
	if d == nil {
		return nil, apperror.NotFound("carpool entry", id)
	}
	if d.Type != models.Driver {
		return nil, apperror.InvalidState("carpool entry", id, "is not a driver")
	}
	return d, nil
}

// pendingPair returns the driver and a passenger whose request targets it.
func pendingPair(g *models.Game, driverID, passengerID string) (*models.CarpoolEntry, *models.CarpoolEntry, error) {
	d, err := driver(g, driverID)
	if err != nil {
		return nil, nil, err
	}
	p, err := passenger(g, passengerID)
	if err != nil {
		return nil, nil, err
	}
	if p.CurrentStatus() != models.StatusPending || p.RequestedDriverID != driverID {
		return nil, nil, apperror.InvalidState("passenger", passengerID, "is not pending for this driver")
	}
	return d, p, nil
}
