package cli

import (
	"fmt"
	"log"

	"brainy-quiz-service/internal/config"
	pgstore "brainy-quiz-service/internal/infra/postgres"
	"brainy-quiz-service/internal/seed"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd imports a JSON seed file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import quiz stages and questions from a JSON seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			path := seedPath
			if path == "" {
				path = cfg.Seed.Path
			}
			data := seed.Sample()
			if path != "" {
				data, err = seed.LoadFile(path)
				if err != nil {
					return err
				}
			}

			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := openBun(cfg.Postgres.URL)
			defer db.Close()

			store := pgstore.NewStore(db, pgstore.NewQuestionLoader(pool), data)
			if err := store.ImportSeed(ctx, data); err != nil {
				return err
			}
			log.Printf("seeded %d stages, %d questions", len(data.Stages), len(data.Questions))
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "file", "", "path to the JSON seed file (defaults to seed.path from config)")
	return cmd
}
