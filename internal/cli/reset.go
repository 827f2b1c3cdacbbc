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

// NewResetCmd deletes all quiz content and results from Postgres.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all stages, questions and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := openBun(cfg.Postgres.URL)
			defer db.Close()

			store := pgstore.NewStore(db, pgstore.NewQuestionLoader(pool), seed.Data{})
			if err := store.DeleteAllData(ctx); err != nil {
				return err
			}
			log.Printf("all quiz data deleted")
			return nil
		},
	}
}
