package main

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/config"
	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/services"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "catalog",
		Short:        "catalog - identity and deduplication for a novel library",
		Long:         "catalog decides whether incoming book files are duplicates, new editions or new works, and groups related works.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional.
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config.toml (default: $XDG_CONFIG_HOME/novel-catalog/config.toml)")

	rootCmd.AddCommand(newLibraryCmd(a))
	rootCmd.AddCommand(newClassifyCmd(a))
	rootCmd.AddCommand(newIngestCmd(a))
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newGroupCmd(a))
	rootCmd.AddCommand(newUngroupCmd(a))
	rootCmd.AddCommand(newSetPrimaryCmd(a))
	rootCmd.AddCommand(newMembersCmd(a))
	rootCmd.AddCommand(newMergeCmd(a))
	rootCmd.AddCommand(newVerifyCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newMCPCmd(a))

	return rootCmd
}

// openDB opens the configured database. Callers close it with closeDB.
func (a *app) openDB() (*database.Context, error) {
	dbCtx, err := database.CreateDatabase(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return dbCtx, nil
}

func closeDB(dbCtx *database.Context) {
	_ = database.CloseDatabase(dbCtx)
}

func (a *app) hasher() (*digest.Hasher, error) {
	return digest.New(a.cfg.Deduplicator.HashAlgorithm)
}

func (a *app) dedupSettings() services.DedupSettings {
	return services.DedupSettings{Enabled: a.cfg.Deduplicator.Enable}
}
