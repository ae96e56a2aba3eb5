package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/avatar"
	"github.com/nickdesi/scba-benevolat/internal/carpool"
	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/handlers"
	"github.com/nickdesi/scba-benevolat/internal/notifier"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"github.com/nickdesi/scba-benevolat/internal/volunteer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().String("port", "", "HTTP port")
	cmd.Flags().Bool("cors", false, "allow cross-origin requests from FRONTEND_URL")
	cmd.Flags().Bool("strict-capacity", false, "refuse sign-ups beyond a role's capacity")
	bindFlags(v, cmd, map[string]string{
		"PORT":            "port",
		"ENABLE_CORS":     "cors",
		"STRICT_CAPACITY": "strict-capacity",
	})
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}

	s := store.New(db, log, store.WithMaxAttempts(cfg.TxMaxAttempts))
	defer s.Close()

	n := newNotifier(cfg, log)

	if cfg.NatsURL != "" {
		nc, err := notifier.ConnectNATS(cfg.NatsURL, log)
		if err != nil {
			return err
		}
		defer nc.Drain()
		go notifier.NewChangePublisher(nc, cfg.NatsSubject, log).Run(ctx, s.SubscribeChanges(ctx))
		log.Info("publishing game changes", zap.String("subject", cfg.NatsSubject))
	}

	authHandler := auth.NewAuthHandler(cfg, s, log)
	h := handlers.New(s,
		volunteer.NewEngine(s, log, volunteer.WithStrictCapacity(cfg.StrictCapacity)),
		carpool.NewEngine(s, log),
		authHandler,
		n,
		avatar.NewCache(s, log),
		log,
	)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, authHandler, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newNotifier posts to Discord when a bot token and channel are configured
// and only logs otherwise.
func newNotifier(cfg *config.Config, log *zap.Logger) notifier.Notifier {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return notifier.NewLogNotifier(log)
	}
	session, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
	if err != nil {
		log.Warn("discord notifier not initialized", zap.Error(err))
		return notifier.NewLogNotifier(log)
	}
	return notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
}
