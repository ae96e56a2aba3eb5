package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/rs/cors"
)

func RegisterRoutes(r *chi.Mux, cfg *config.Config, authHandler *auth.AuthHandler, h *Handlers) huma.API {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", auth.DisplayNameHeader},
			AllowCredentials: true,
		}).Handler)
	}
	r.Use(authHandler.SessionMiddleware)

	humaConfig := huma.DefaultConfig("SCBA Bénévolat API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.TokenCookie,
		},
	}
	api := humachi.New(r, humaConfig)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Discord login redirects, so it stays outside huma.
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	huma.Get(api, "/me", authHandler.HandleMe, func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	})

	h.Register(api)
	return api
}

// Register adds the game, volunteer and carpool operations to api.
func (h *Handlers) Register(api huma.API) {
	api.UseMiddleware(h.resolveIdentity(api))

	huma.Get(api, "/games", h.HandleListGames)
	sse.Register(api, huma.Operation{
		OperationID: "stream-games",
		Method:      http.MethodGet,
		Path:        "/games/stream",
		Summary:     "Stream upcoming games",
	}, map[string]any{
		"games": GamesEvent{},
	}, h.StreamGames)
	huma.Get(api, "/games/{gameId}", h.HandleGetGame)

	huma.Post(api, "/games/{gameId}/roles/{roleId}/volunteers", h.HandleSignUp)
	huma.Delete(api, "/games/{gameId}/roles/{roleId}/volunteers/{name}", h.HandleRemoveVolunteer)
	huma.Patch(api, "/games/{gameId}/roles/{roleId}/volunteers/{name}", h.HandleRenameVolunteer)

	registerCarpool(api, h)

	huma.Get(api, "/me/registrations", h.HandleMyRegistrations, func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	})
	huma.Get(api, "/me/carpools", h.HandleMyCarpools)

	huma.Get(api, "/avatars", h.HandleAvatars)
	sse.Register(api, huma.Operation{
		OperationID: "stream-avatars",
		Method:      http.MethodGet,
		Path:        "/avatars/stream",
		Summary:     "Stream account photos",
	}, map[string]any{
		"avatars": AvatarsEvent{},
	}, h.StreamAvatars)
}
