// Package handlers exposes the volunteer and carpool engines over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/avatar"
	"github.com/nickdesi/scba-benevolat/internal/carpool"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/notifier"
	"github.com/nickdesi/scba-benevolat/internal/volunteer"
	"go.uber.org/zap"
)

type Games interface {
	Get(ctx context.Context, id string) (*models.Game, error)
	List(ctx context.Context, fromISO string) ([]models.Game, error)
	Upcoming(ctx context.Context) ([]models.Game, error)
	Subscribe(ctx context.Context) (<-chan []models.Game, error)
	Registrations(ctx context.Context, accountID string) ([]models.Registration, error)
}

type Handlers struct {
	games      Games
	volunteers *volunteer.Engine
	carpools   *carpool.Engine
	auth       *auth.AuthHandler
	notifier   notifier.Notifier
	avatars    *avatar.Cache
	logger     *zap.Logger
	now        func() time.Time
}

func New(
	games Games,
	volunteers *volunteer.Engine,
	carpools *carpool.Engine,
	authHandler *auth.AuthHandler,
	n notifier.Notifier,
	avatars *avatar.Cache,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		games:      games,
		volunteers: volunteers,
		carpools:   carpools,
		auth:       authHandler,
		notifier:   n,
		avatars:    avatars,
		logger:     logger.Named("http"),
		now:        time.Now,
	}
}

type GameOutput struct {
	Body *models.Game
}

func gameOutput(g *models.Game) *GameOutput {
	return &GameOutput{Body: g}
}

// resolveIdentity works out the caller once per operation and stores it in
// the request context for auth.IdentityFrom.
func (h *Handlers) resolveIdentity(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		who, err := h.auth.Resolve(ctx.Context(), ctx.Header("Cookie"), ctx.Header(auth.DisplayNameHeader))
		if err != nil {
			h.logger.Error("identity lookup failed", zap.Error(err))
			huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal error")
			return
		}
		next(huma.WithContext(ctx, auth.WithIdentity(ctx.Context(), who)))
	}
}

// fail maps engine errors to HTTP problems.
func (h *Handlers) fail(err error) error {
	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return err
	}

	var capErr *apperror.CapacityError
	if errors.As(err, &capErr) {
		return huma.NewError(http.StatusConflict, capErr.Error(),
			&huma.ErrorDetail{Message: "requested", Location: "requested", Value: capErr.Requested},
			&huma.ErrorDetail{Message: "available", Location: "available", Value: capErr.Available},
		)
	}

	var appErr *apperror.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return huma.Error404NotFound(message)
	case errors.Is(err, apperror.ErrValidation):
		if appErr != nil && appErr.Field != "" {
			return huma.Error400BadRequest(message, &huma.ErrorDetail{
				Message:  message,
				Location: "body." + appErr.Field,
			})
		}
		return huma.Error400BadRequest(message)
	case errors.Is(err, apperror.ErrInvalidState):
		return huma.Error422UnprocessableEntity(message)
	case errors.Is(err, apperror.ErrConflict):
		h.logger.Warn("transaction retries exhausted", zap.Error(err))
		return huma.Error503ServiceUnavailable("the game is busy, please retry")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled")
	}

	h.logger.Error("request failed", zap.Error(err))
	return huma.Error500InternalServerError("internal error")
}
