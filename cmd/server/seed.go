package main

import (
	"os"

	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/seed"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newSeedCmd(v *viper.Viper) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the games listed in a YAML fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer log.Sync()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			games, err := seed.Parse(f)
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			s := store.New(db, log)
			defer s.Close()

			created, err := seed.Load(cmd.Context(), s, games)
			if err != nil {
				return err
			}
			log.Info("games seeded", zap.String("file", file), zap.Int("created", created), zap.Int("listed", len(games)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "games.yaml", "fixture file")
	return cmd
}
