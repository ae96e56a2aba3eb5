package auth

import (
	"context"
	"testing"

	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*AuthHandler, *models.User) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	s := store.New(db, zap.NewNop())

	user := &models.User{
		DiscordID:   "123456",
		Username:    "testuser",
		DisplayName: "Test User",
		Email:       "test@example.com",
		AvatarURL:   "https://cdn.example/avatar.png",
	}
	if err := s.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("failed to save user: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewAuthHandler(cfg, s, zap.NewNop()), user
}

func TestHandleMe(t *testing.T) {
	handler, user := newHandler(t)

	t.Run("Authenticated", func(t *testing.T) {
		token, _ := handler.GenerateToken(user.ID)
		input := &AuthInput{
			Cookie: "theme=dark; auth_token=" + token,
		}
		resp, err := handler.HandleMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}

		if resp.Body.Username != user.Username {
			t.Errorf("expected username %s, got %s", user.Username, resp.Body.Username)
		}
		if resp.Body.DisplayName != "Test User" {
			t.Errorf("expected display name Test User, got %s", resp.Body.DisplayName)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := handler.HandleMe(context.Background(), &AuthInput{})
		if err == nil {
			t.Fatal("expected error for unauthenticated request, got nil")
		}
	})

	t.Run("ForgedToken", func(t *testing.T) {
		other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"}, nil, zap.NewNop())
		token, _ := other.GenerateToken(user.ID)
		_, err := handler.HandleMe(context.Background(), &AuthInput{Cookie: "auth_token=" + token})
		if err == nil {
			t.Fatal("expected error for token signed with another secret")
		}
	})
}

func TestResolve(t *testing.T) {
	handler, user := newHandler(t)
	ctx := context.Background()
	token, _ := handler.GenerateToken(user.ID)

	t.Run("Account", func(t *testing.T) {
		id, err := handler.Resolve(ctx, "auth_token="+token, "")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if !id.Authenticated() || id.AccountID != "1" {
			t.Errorf("expected account 1, got %+v", id)
		}
		if id.DisplayName != "Test User" || id.AvatarURL != user.AvatarURL {
			t.Errorf("unexpected identity %+v", id)
		}
	})

	t.Run("AccountWithChosenName", func(t *testing.T) {
		id, _ := handler.Resolve(ctx, "auth_token="+token, "  Maman de Léo ")
		if id.DisplayName != "Maman de Léo" || !id.Authenticated() {
			t.Errorf("unexpected identity %+v", id)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		id, err := handler.Resolve(ctx, "", "Bob")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if id.Authenticated() || id.DisplayName != "Bob" || id.AvatarURL != "" {
			t.Errorf("unexpected identity %+v", id)
		}
	})

	t.Run("InvalidTokenFallsBackToAnonymous", func(t *testing.T) {
		id, err := handler.Resolve(ctx, "auth_token=garbage", "Bob")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if id.Authenticated() {
			t.Errorf("expected anonymous identity, got %+v", id)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ghost, _ := handler.GenerateToken(99)
		id, err := handler.Resolve(ctx, "auth_token="+ghost, "Bob")
		if err != nil || id.Authenticated() {
			t.Errorf("expected anonymous identity, got %+v, %v", id, err)
		}
	})
}

func TestIdentityContext(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{AccountID: "7", DisplayName: "Zoé"})
	if got := IdentityFrom(ctx); got.AccountID != "7" {
		t.Errorf("expected account 7, got %+v", got)
	}
	if got := IdentityFrom(context.Background()); got.Authenticated() {
		t.Errorf("expected anonymous identity, got %+v", got)
	}
}
