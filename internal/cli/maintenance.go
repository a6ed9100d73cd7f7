package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/rulemate-india/core/internal/app"
	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/database"
	"github.com/rulemate-india/core/internal/modules/content/answer"
	"github.com/rulemate-india/core/internal/modules/storage/backup"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := database.EnsureSchema(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func NewBackupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Export stored answers to a zip archive",
		Long:  "Writes every stored answer to the backup directory and uploads the archive when backup.s3 is configured.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return withDatabase(cfg, func(db *gorm.DB) error {
				exporter, err := app.NewBackupExporter(cfg, db, logger)
				if err != nil {
					return err
				}
				res, err := exporter.Run(cmd.Context())
				if res != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %d answers to %s\n", res.Records, res.Path)
					if res.ObjectKey != "" && err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", res.ObjectKey)
					}
				}
				return err
			})
		},
	}
}

func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive.zip>",
		Short: "Import answers from a backup archive",
		Long:  "Inserts every answer from the archive whose slug is not stored yet. Existing answers are left untouched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withDatabase(cfg, func(db *gorm.DB) error {
				summary, err := backup.Restore(cmd.Context(), answer.NewStore(db), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d answers, skipped %d\n", summary.Inserted, summary.Skipped)
				return nil
			})
		},
	}
}

func withDatabase(cfg *config.AppConfig, fn func(db *gorm.DB) error) error {
	db, err := database.Connect(cfg, true)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(db)
}
