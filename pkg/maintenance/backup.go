package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/store"
)

// StartBackups starts the cron-scheduled snapshot backup job when enabled.
// Returns a cancel func. Backup failures are logged, never fatal: the job
// reads through the store's Load, so the degraded-read policy applies to
// backups as well.
func StartBackups(ctx context.Context, cfg *config.Config, st *store.Store) (context.CancelFunc, error) {
	if !cfg.Backup.Enabled {
		logger.Info("backups_disabled")
		return func() {}, nil
	}

	dir := cfg.Backup.Dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(st.Path()), "backups")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("backup_dir_create_failed", "dir", dir, "error", err)
		return nil, err
	}

	// default daily @02:00
	cronExpr := cfg.Backup.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("backup_invalid_cron", "cron", cfg.Backup.Cron)
		return nil, fmt.Errorf("invalid backup cron expression: %s", cfg.Backup.Cron)
	}

	logger.Info("backups_enabled", "cron", cronExpr, "dir", dir)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, st, dir, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression and sleeps
// until that time.
func runScheduler(ctx context.Context, st *store.Store, dir, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("backup_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("backup_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(st, dir); err != nil {
				logger.Error("backup_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("backup_scheduler_stopping")
			return
		}
	}
}

// RunOnce writes a timestamped copy of the current snapshot into dir.
func RunOnce(st *store.Store, dir string) error {
	snap := st.Load()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	name := "backup-" + time.Now().UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	logger.Info("backup_written", "path", path, "messages", len(snap.Messages))
	return nil
}
