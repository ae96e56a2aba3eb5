package handlers

import (
	"context"

	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/volunteer"
	"go.uber.org/zap"
)

type SignUpInput struct {
	GameID string `path:"gameId"`
	RoleID string `path:"roleId"`
	Body   struct {
		Names []string `json:"names,omitempty" doc:"Names to sign up"`
		Name  string   `json:"name,omitempty" doc:"One or more names, e.g. \"Marie et Paul\""`
	}
}

func (h *Handlers) HandleSignUp(ctx context.Context, input *SignUpInput) (*GameOutput, error) {
	who := auth.IdentityFrom(ctx)

	names := append([]string{}, input.Body.Names...)
	names = volunteer.CleanNames(append(names, volunteer.ParseNames(input.Body.Name)...))

	roleID := models.RoleID(input.RoleID)
	game, err := h.volunteers.SignUp(ctx, who, input.GameID, roleID, names)
	if err != nil {
		return nil, h.fail(err)
	}

	if role := game.Role(roleID); role != nil {
		if err := h.notifier.NotifySignUp(*game, *role, who, names); err != nil {
			h.logger.Warn("sign-up notification failed", zap.Error(err))
		}
	}
	return gameOutput(game), nil
}

type VolunteerInput struct {
	GameID string `path:"gameId"`
	RoleID string `path:"roleId"`
	Name   string `path:"name"`
}

func (h *Handlers) HandleRemoveVolunteer(ctx context.Context, input *VolunteerInput) (*GameOutput, error) {
	who := auth.IdentityFrom(ctx)
	game, err := h.volunteers.Remove(ctx, who, input.GameID, models.RoleID(input.RoleID), input.Name)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}

type RenameInput struct {
	GameID string `path:"gameId"`
	RoleID string `path:"roleId"`
	Name   string `path:"name"`
	Body   struct {
		NewName string `json:"newName"`
	}
}

func (h *Handlers) HandleRenameVolunteer(ctx context.Context, input *RenameInput) (*GameOutput, error) {
	who := auth.IdentityFrom(ctx)
	game, err := h.volunteers.Rename(ctx, who, input.GameID, models.RoleID(input.RoleID), input.Name, input.Body.NewName)
	if err != nil {
		return nil, h.fail(err)
	}
	return gameOutput(game), nil
}
