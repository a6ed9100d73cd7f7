package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/modules/content/answer"
	"github.com/rulemate-india/core/internal/modules/storage/backup"
	pkgcron "github.com/rulemate-india/core/internal/pkg/cron"
)

// registerCronJobs registers all scheduled background jobs. The backup job
// is only registered when backup.interval is set.
func registerCronJobs(sched *pkgcron.Scheduler, cfg *config.AppConfig, db *gorm.DB, logger *zap.Logger) error {
	if cfg.Backup.Interval <= 0 {
		return nil
	}
	exporter, err := NewBackupExporter(cfg, db, logger)
	if err != nil {
		return err
	}
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "backup",
		Description: "Export stored answers and upload them when S3 is configured",
		Interval:    cfg.Backup.Interval,
		Fn: func(ctx context.Context) error {
			res, err := exporter.Run(ctx)
			if err != nil {
				return err
			}
			cronLogger.Info("backup finished",
				zap.String("path", res.Path),
				zap.String("object", res.ObjectKey),
				zap.Int("records", res.Records))
			return nil
		},
	})
	return nil
}

// NewBackupExporter builds the exporter for the configured backup directory
// and optional S3 target.
func NewBackupExporter(cfg *config.AppConfig, db *gorm.DB, logger *zap.Logger) (*backup.Exporter, error) {
	opts := []backup.Option{backup.WithLogger(logger)}
	if cfg.Backup.S3.Enabled() {
		uploader, err := backup.NewS3Uploader(cfg.Backup.S3)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		opts = append(opts, backup.WithUploader(uploader, cfg.Backup.S3.Prefix))
	}
	return backup.NewExporter(answer.NewStore(db), cfg.BackupDir(), opts...), nil
}
