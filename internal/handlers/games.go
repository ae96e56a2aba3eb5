package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/schedule"
	"go.uber.org/zap"
)

// avatarWait bounds how long GET /avatars waits for the first user load.
const avatarWait = 2 * time.Second

type ListGamesInput struct {
	From string `query:"from" doc:"ISO date (YYYY-MM-DD) of the first game, defaults to today"`
}

type GamesOutput struct {
	Body []models.Game
}

func (h *Handlers) HandleListGames(ctx context.Context, input *ListGamesInput) (*GamesOutput, error) {
	var (
		games []models.Game
		err   error
	)
	if input.From == "" {
		games, err = h.games.Upcoming(ctx)
	} else {
		games, err = h.games.List(ctx, input.From)
	}
	if err != nil {
		return nil, h.fail(err)
	}
	return &GamesOutput{Body: games}, nil
}

type GameInput struct {
	GameID string `path:"gameId"`
}

func (h *Handlers) HandleGetGame(ctx context.Context, input *GameInput) (*GameOutput, error) {
	game, err := h.games.Get(ctx, input.GameID)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

type RegistrationsOutput struct {
	Body struct {
		Registrations []models.Registration `json:"registrations"`
		Slots         map[string][]string   `json:"slots" doc:"Names registered by the caller, keyed by gameId_roleId"`
	}
}

func (h *Handlers) HandleMyRegistrations(ctx context.Context, _ *struct{}) (*RegistrationsOutput, error) {
	who := auth.IdentityFrom(ctx)
	if !who.Authenticated() {
		return nil, huma.Error401Unauthorized("Unauthorized: login required")
	}

	regs, err := h.games.Registrations(ctx, who.AccountID)
	if err != nil {
		return nil, h.fail(err)
	}

	resp := &RegistrationsOutput{}
	resp.Body.Registrations = regs
	resp.Body.Slots = map[string][]string{}
	for slot, names := range schedule.RegistrationsMap(regs) {
		resp.Body.Slots[models.LegacyRegistrationKey(slot.GameID, slot.RoleID)] = names
	}
	return resp, nil
}

type CarpoolsOutput struct {
	Body struct {
		Carpools []schedule.CarpoolRegistration `json:"carpools"`
		Upcoming []schedule.CarpoolRegistration `json:"upcoming"`
		Stats    schedule.CarpoolStats          `json:"stats"`
	}
}

func (h *Handlers) HandleMyCarpools(ctx context.Context, _ *struct{}) (*CarpoolsOutput, error) {
	who := auth.IdentityFrom(ctx)
	if who.DisplayName == "" {
		return nil, huma.Error400BadRequest("a display name is required")
	}

	games, err := h.games.List(ctx, "")
	if err != nil {
		return nil, h.fail(err)
	}

	regs := schedule.UserCarpools(games, who.DisplayName)
	resp := &CarpoolsOutput{}
	resp.Body.Carpools = regs
	resp.Body.Upcoming = schedule.Upcoming(regs, h.now())
	resp.Body.Stats = schedule.Stats(regs)
	return resp, nil
}

type AvatarsOutput struct {
	Body map[string]string
}

func (h *Handlers) HandleAvatars(ctx context.Context, _ *struct{}) (*AvatarsOutput, error) {
	loaded := h.avatars.Active()
	consumer, err := h.avatars.Register()
	if err != nil {
		return nil, h.fail(err)
	}
	defer consumer.Close()

	if !loaded {
		select {
		case m, ok := <-consumer.Updates():
			if ok {
				return &AvatarsOutput{Body: m}, nil
			}
		case <-time.After(avatarWait):
		case <-ctx.Done():
		}
	}
	return &AvatarsOutput{Body: consumer.All()}, nil
}

// GamesEvent is pushed on the games stream after every committed change.
type GamesEvent struct {
	Games []models.Game `json:"games"`
}

// AvatarsEvent is pushed on the avatars stream when an account changes.
type AvatarsEvent struct {
	Avatars map[string]string `json:"avatars"`
}

func (h *Handlers) StreamGames(ctx context.Context, _ *struct{}, send sse.Sender) {
	ch, err := h.games.Subscribe(ctx)
	if err != nil {
		h.logger.Error("games stream failed", zap.Error(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case games, ok := <-ch:
			if !ok {
				return
			}
			if err := send.Data(GamesEvent{Games: games}); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) StreamAvatars(ctx context.Context, _ *struct{}, send sse.Sender) {
	consumer, err := h.avatars.Register()
	if err != nil {
		h.logger.Error("avatars stream failed", zap.Error(err))
		return
	}
	defer consumer.Close()

	if current := consumer.All(); len(current) > 0 {
		if err := send.Data(AvatarsEvent{Avatars: current}); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-consumer.Updates():
			if !ok {
				return
			}
			if err := send.Data(AvatarsEvent{Avatars: m}); err != nil {
				return
			}
		}
	}
}
