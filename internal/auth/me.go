package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/nickdesi/scba-benevolat/internal/models"
)

// AuthInput carries what Resolve needs. Operations embed it.
type AuthInput struct {
	Cookie      string `header:"Cookie"`
	DisplayName string `header:"X-Display-Name" doc:"Name used for anonymous sign-ups"`
}

type MeResponse struct {
	Body struct {
		ID          uint   `json:"id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		AvatarURL   string `json:"avatar_url"`
	}
}

// Authorize returns the account behind the session cookie or a 401.
func (h *AuthHandler) Authorize(ctx context.Context, cookieHeader string) (*models.User, error) {
	token := tokenFromHeader(cookieHeader)
	if token == "" {
		return nil, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	userID, _, err := h.parseToken(token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	user, err := h.users.User(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized: Unknown user")
	}
	return user, nil
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeResponse, error) {
	user, err := h.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	resp := &MeResponse{}
	resp.Body.ID = user.ID
	resp.Body.Username = user.Username
	resp.Body.DisplayName = user.Name()
	resp.Body.Email = user.Email
	resp.Body.AvatarURL = user.AvatarURL
	return resp, nil
}
