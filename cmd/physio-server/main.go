package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/physiocare/dashboard/internal/config"
	"github.com/physiocare/dashboard/internal/domain/caregiver"
	"github.com/physiocare/dashboard/internal/domain/mission"
	"github.com/physiocare/dashboard/internal/domain/patient"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/legacy"
	"github.com/physiocare/dashboard/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "physio-server",
		Short: "Physical therapy admin dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(importLegacyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

// loadConfig loads and validates the configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, newLogger(cfg))
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.Files).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.Files).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func purgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Hard-delete records soft-deleted longer than PURGE_AFTER",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := newMaintenance(cfg, pool, nil, logger)
			results, err := runner.PurgeOnce(ctx, dryRun)
			for _, r := range results {
				verb := "purged"
				if r.DryRun {
					verb = "would purge"
				}
				fmt.Printf("%-10s %s %d row(s)\n", r.Entity, verb, r.Rows)
			}
			return err
		},
	}
	cmd.Flags().Bool("dry-run", false, "Only count the rows that would be purged")
	return cmd
}

func importLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Import patients, caregivers and missions from the legacy document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			mongoURL, _ := cmd.Flags().GetString("mongo-url")
			database, _ := cmd.Flags().GetString("database")
			if mongoURL == "" {
				mongoURL = cfg.MongoURL
			}
			if database == "" {
				database = cfg.MongoDatabase
			}
			if mongoURL == "" {
				return fmt.Errorf("--mongo-url or MONGO_URL is required")
			}

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			src, err := legacy.Connect(connectCtx, mongoURL, database)
			cancel()
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = src.Close(closeCtx)
			}()

			importer := legacy.NewImporter(src,
				patient.NewRepo(pool), mission.NewRepo(pool), caregiver.NewRepo(pool),
				db.NewTxRunner(pool), logger)
			rep, err := importer.Run(ctx)
			fmt.Printf("patients=%d missions=%d submissions=%d caregivers=%d links=%d existing=%d skipped=%d\n",
				rep.Patients, rep.Missions, rep.Submissions, rep.Caregivers, rep.Links, rep.Existing, rep.Skipped)
			if rep.MissingSubmissions > 0 || rep.DanglingLinks > 0 {
				fmt.Printf("missing submissions=%d dangling caregiver links=%d\n", rep.MissingSubmissions, rep.DanglingLinks)
			}
			return err
		},
	}
	cmd.Flags().String("mongo-url", "", "Legacy MongoDB connection string (defaults to MONGO_URL)")
	cmd.Flags().String("database", "", "Legacy database name (defaults to MONGO_DATABASE)")
	return cmd
}
