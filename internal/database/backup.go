package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoshop/internal/config"

	"github.com/rs/zerolog"
)

const backupPrefix = "autoshop_"

// Backup writes a consistent copy of the database into dir and returns its
// path.
func (db *DB) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, backupPrefix+time.Now().Format("20060102_150405")+".db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return path, nil
}

type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{db: db, config: cfg, logger: logger}
}

// Start backs up immediately and then every Interval until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval := s.config.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	s.logger.Info().Dur("interval", interval).Str("path", s.config.StoragePath).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	path, err := s.db.Backup(ctx, s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	s.logger.Info().Str("file", path).Msg("Backup completed")
	s.CleanupOldBackups()
}

// CleanupOldBackups removes backups older than RetentionDays. Files not
// written by Backup are left alone.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		s.logger.Info().Str("file", e.Name()).Msg("Deleting old backup")
		if err := os.Remove(filepath.Join(s.config.StoragePath, e.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", e.Name()).Msg("Failed to delete old backup")
		}
	}
}
