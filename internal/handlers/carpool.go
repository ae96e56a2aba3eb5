package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/nickdesi/scba-benevolat/internal/carpool"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
)

type SubmitCarpoolInput struct {
	GameID string `path:"gameId"`
	Body   struct {
		Name              string             `json:"name"`
		Type              models.CarpoolType `json:"type" enum:"driver,passenger"`
		Phone             string             `json:"phone,omitempty"`
		Seats             *int               `json:"seats,omitempty" doc:"Seats offered by a driver or needed by a passenger"`
		DepartureLocation string             `json:"departureLocation,omitempty"`
	}
}

type CarpoolEntryOutput struct {
	Body *models.CarpoolEntry
}

func (h *Handlers) HandleSubmitCarpool(ctx context.Context, input *SubmitCarpoolInput) (*CarpoolEntryOutput, error) {
	entry, err := h.carpools.Submit(ctx, input.GameID, carpool.Entry{
		Name:              input.Body.Name,
		Type:              input.Body.Type,
		Phone:             input.Body.Phone,
		Seats:             input.Body.Seats,
		DepartureLocation: input.Body.DepartureLocation,
	})
	if err != nil {
		return nil, h.fail(err)
	}
	return &CarpoolEntryOutput{Body: entry}, nil
}

type CarpoolEntryInput struct {
	GameID  string `path:"gameId"`
	EntryID string `path:"entryId"`
}

func (h *Handlers) HandleRemoveCarpool(ctx context.Context, input *CarpoolEntryInput) (*GameOutput, error) {
	game, err := h.carpools.Remove(ctx, input.GameID, input.EntryID)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

type RequestSeatInput struct {
	GameID      string `path:"gameId"`
	PassengerID string `path:"passengerId"`
	Body        struct {
		DriverID string `json:"driverId"`
	}
}

func (h *Handlers) HandleRequestSeat(ctx context.Context, input *RequestSeatInput) (*GameOutput, error) {
	game, err := h.carpools.RequestSeat(ctx, input.GameID, input.PassengerID, input.Body.DriverID)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

type DecisionInput struct {
	GameID      string `path:"gameId"`
	DriverID    string `path:"driverId"`
	PassengerID string `path:"passengerId"`
}

func (h *Handlers) HandleAccept(ctx context.Context, input *DecisionInput) (*GameOutput, error) {
	game, err := h.carpools.Accept(ctx, input.GameID, input.DriverID, input.PassengerID)
	if err != nil {
		return nil, h.fail(err)
	}

	d, p := game.Entry(input.DriverID), game.Entry(input.PassengerID)
	if d != nil && p != nil {
		if err := h.notifier.NotifyMatch(*game, *d, *p); err != nil {
			h.logger.Warn("match notification failed", zap.Error(err))
		}
	}
	return gameOutput(game), nil
}

func (h *Handlers) HandleReject(ctx context.Context, input *DecisionInput) (*GameOutput, error) {
	game, err := h.carpools.Reject(ctx, input.GameID, input.DriverID, input.PassengerID)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

type CancelInput struct {
	GameID      string `path:"gameId"`
	PassengerID string `path:"passengerId"`
}

func (h *Handlers) HandleCancel(ctx context.Context, input *CancelInput) (*GameOutput, error) {
	game, err := h.carpools.Cancel(ctx, input.GameID, input.PassengerID)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

// DriverSummary is a driver with free seats together with who already rides
// with it and who is waiting for an answer.
type DriverSummary struct {
	Driver          models.CarpoolEntry   `json:"driver"`
	RemainingSeats  int                   `json:"remainingSeats"`
	Passengers      []models.CarpoolEntry `json:"passengers"`
	PendingRequests []models.CarpoolEntry `json:"pendingRequests"`
}

type DriversOutput struct {
	Body []DriverSummary
}

func (h *Handlers) HandleAvailableDrivers(ctx context.Context, input *GameInput) (*DriversOutput, error) {
	game, err := h.games.Get(ctx, input.GameID)
	if err != nil {
		return nil, h.fail(err)
	}

	drivers := carpool.AvailableDrivers(game.Carpool)
	out := make([]DriverSummary, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, DriverSummary{
			Driver:          d,
			RemainingSeats:  carpool.RemainingSeats(d, game.Carpool),
			Passengers:      carpool.MatchedPassengers(d, game.Carpool),
			PendingRequests: carpool.PendingRequests(d.ID, game.Carpool),
		})
	}
	return &DriversOutput{Body: out}, nil
}

func registerCarpool(api huma.API, h *Handlers) {
	huma.Get(api, "/games/{gameId}/carpool/drivers", h.HandleAvailableDrivers)
	huma.Register(api, huma.Operation{
		OperationID:   "submit-carpool",
		Method:        http.MethodPost,
		Path:          "/games/{gameId}/carpool",
		Summary:       "Offer or request a ride",
		DefaultStatus: http.StatusCreated,
	}, h.HandleSubmitCarpool)
	huma.Delete(api, "/games/{gameId}/carpool/{entryId}", h.HandleRemoveCarpool)
	huma.Post(api, "/games/{gameId}/carpool/{passengerId}/request", h.HandleRequestSeat)
	huma.Post(api, "/games/{gameId}/carpool/{driverId}/accept/{passengerId}", h.HandleAccept)
	huma.Post(api, "/games/{gameId}/carpool/{driverId}/reject/{passengerId}", h.HandleReject)
	huma.Post(api, "/games/{gameId}/carpool/{passengerId}/cancel", h.HandleCancel)
}
