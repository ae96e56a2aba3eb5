package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"
	DiscordAvatarURL         = "https://cdn.discordapp.com/avatars/%s/%s.png"

	TokenCookie       = "auth_token"
	StateCookie       = "oauth_state"
	DisplayNameHeader = "X-Display-Name"
	TokenDuration     = 24 * time.Hour
)

type Users interface {
	User(ctx context.Context, id uint) (*models.User, error)
	UserByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	users       Users
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAuthHandler(cfg *config.Config, users Users, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		users:  users,
		cfg:    cfg,
		logger: logger.Named("auth"),
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
	})
	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

type discordGuild struct {
	ID string `json:"id"`
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(StateCookie)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("token exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	if h.cfg.DiscordGuildID != "" {
		isMember, err := h.isGuildMember(client)
		if err != nil {
			h.logger.Error("failed to read user guilds", zap.Error(err))
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}
		if !isMember {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	user, err := h.upsertUser(r.Context(), du)
	if err != nil {
		h.logger.Error("failed to save user", zap.Error(err))
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	setTokenCookie(w, jwtToken)
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Value: "", Path: "/", MaxAge: -1})

	h.logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) isGuildMember(client *http.Client) (bool, error) {
	resp, err := client.Get(DiscordUserGuildsAPI)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var guilds []discordGuild
	if err := json.NewDecoder(resp.Body).Decode(&guilds); err != nil {
		return false, fmt.Errorf("decode guilds: %w", err)
	}
	return slices.ContainsFunc(guilds, func(g discordGuild) bool {
		return g.ID == h.cfg.DiscordGuildID
	}), nil
}

func (h *AuthHandler) upsertUser(ctx context.Context, du discordUser) (*models.User, error) {
	user, err := h.users.UserByDiscordID(ctx, du.ID)
	if err != nil {
		return nil, err
	}
	user.Username = du.Username
	user.Email = du.Email
	if user.DisplayName == "" {
		user.DisplayName = du.GlobalName
	}
	if du.Avatar != "" {
		user.AvatarURL = fmt.Sprintf(DiscordAvatarURL, du.ID, du.Avatar)
	}
	if err := h.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// parseToken validates a session token and returns its user id and expiry.
func (h *AuthHandler) parseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, errors.New("token has no expiry")
	}
	return uint(userIDFloat), exp.Time, nil
}

// Resolve works out who is calling from the Cookie header and the
// X-Display-Name header. A valid session yields the account, its avatar and
// its name unless the caller supplied another display name. Without a valid
// session the caller is an anonymous visitor known only by display name.
func (h *AuthHandler) Resolve(ctx context.Context, cookieHeader, displayName string) (Identity, error) {
	displayName = strings.TrimSpace(displayName)
	anonymous := Identity{DisplayName: displayName}

	tokenString := tokenFromHeader(cookieHeader)
	if tokenString == "" {
		return anonymous, nil
	}
	userID, _, err := h.parseToken(tokenString)
	if err != nil {
		return anonymous, nil
	}

	user, err := h.users.User(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return anonymous, nil
		}
		return Identity{}, err
	}

	id := Identity{
		AccountID:   strconv.FormatUint(uint64(user.ID), 10),
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
	}
	if id.DisplayName == "" {
		id.DisplayName = user.Name()
	}
	return id, nil
}

func tokenFromHeader(cookieHeader string) string {
	if cookieHeader == "" {
		return ""
	}
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == TokenCookie {
			return c.Value
		}
	}
	return ""
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})
}
