package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-ddd-user-service/config"
	userapp "github.com/oksasatya/go-ddd-user-service/internal/application"
	"github.com/oksasatya/go-ddd-user-service/internal/container"
	pginfra "github.com/oksasatya/go-ddd-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-service/internal/router"
	"github.com/oksasatya/go-ddd-user-service/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-ctl", cfg.Env)

	if err := newRootCmd(cfg, logger).Execute(); err != nil {
		helpers.LogError(logger, "usersctl failed", err, logrus.Fields{"args": os.Args[1:]})
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "usersctl",
		Short:        "Operational tasks for the user service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "store driver: postgres|memory (env STORE_DRIVER)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("migrate needs the postgres store, got %q", cfg.StoreDriver)
			}
			return pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger)
		},
	}
	migrateCmd.Flags().StringVar(&cfg.MigrationsDir, "dir", cfg.MigrationsDir, "migrations directory (env MIGRATIONS_DIR)")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo users; existing ones are skipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withService(ctx, cfg, logger, func(svc *userapp.Service) error {
				res, err := seedUsers(ctx, svc, demoUsers)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded: created=%d skipped=%d\n", res.Created, res.Skipped)
				return nil
			})
		},
	}

	var outFile string
	var toGCS bool
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Dump all users as JSON to a file, stdout or Google Cloud Storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if toGCS && cfg.GCSBucket == "" {
				return fmt.Errorf("--gcs needs GCS_BUCKET")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withService(ctx, cfg, logger, func(svc *userapp.Service) error {
				snap, err := buildSnapshot(ctx, svc, time.Now().UTC())
				if err != nil {
					return err
				}
				switch {
				case toGCS:
					uri, err := uploadSnapshot(ctx, cfg, snap)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", snap.Count, uri)
				case outFile != "":
					if err := writeSnapshot(outFile, snap); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", snap.Count, outFile)
				default:
					return encodeSnapshot(cmd.OutOrStdout(), snap)
				}
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().BoolVar(&toGCS, "gcs", false, "upload to GCS_BUCKET under exports/")

	root.AddCommand(migrateCmd, seedCmd, exportCmd)
	return root
}

// withService bootstraps the configured infrastructure, builds the user
// service on top of it and releases everything when fn returns.
func withService(ctx context.Context, cfg *config.Config, logger *logrus.Logger, fn func(svc *userapp.Service) error) error {
	cleanup, err := container.Bootstrap(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}
	svc, _, err := router.BuildUserService(cfg)
	if err != nil {
		return err
	}
	return fn(svc)
}
