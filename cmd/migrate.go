package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/pkg/config"
)

// migrateCmd applies the database schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Bring the database schema up to date.

Creates the sqlite database file if it does not exist and auto-migrates
all tables: users, settings, sources, snippets and sync records.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Database migrated at %s\n", cfg.Database.Path)
	return nil
}
