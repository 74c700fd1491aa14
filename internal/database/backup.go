package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"akkord/internal/config"

	"github.com/rs/zerolog"
)

// BackupService периодически снимает копию файла журнала через VACUUM INTO.
// Работает поверх уже открытого соединения, отдельный handle не нужен.
type BackupService struct {
	db     *DB
	cfg    config.BackupConfig
	logger zerolog.Logger
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// Start снимает копию сразу, затем по расписанию до отмены контекста.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	interval := 24 * time.Hour
	if s.cfg.Schedule != "" {
		d, err := time.ParseDuration(s.cfg.Schedule)
		if err != nil {
			s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("bad backup schedule, using 24h")
		} else {
			interval = d
		}
	}
	s.logger.Info().Dur("interval", interval).Msg("backup service started")

	s.runBackup(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("backup service stopped")
			return
		case <-ticker.C:
			s.runBackup(ctx)
		}
	}
}

func (s *BackupService) runBackup(ctx context.Context) {
	path, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.logger.Info().Str("path", path).Msg("backup completed")
	s.Prune()
}

// Snapshot пишет консистентную копию базы в каталог хранения и возвращает её путь.
// VACUUM INTO безопасен при параллельных записях.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("ledger_%s.db", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.cfg.StoragePath, name)

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		s.logger.Debug().Str("path", path).Int64("bytes", info.Size()).Msg("snapshot written")
	}
	return path, nil
}

// Prune удаляет копии старше retention_days. Возвращает число удалённых файлов.
func (s *BackupService) Prune() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory")
		return 0
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.StoragePath, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("remove old backup")
			continue
		}
		s.logger.Info().Str("file", entry.Name()).Msg("old backup removed")
		removed++
	}
	return removed
}
