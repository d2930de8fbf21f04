package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"aichat/internal/config"
	"aichat/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			setupLogger(cfg)

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("migrations applied")

			if seed {
				if err := database.Seed(db); err != nil {
					return err
				}
				slog.Info("demo conversation seeded", "session_id", database.DemoSessionID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "also insert the demo conversation")
	return cmd
}
