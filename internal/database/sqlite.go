package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqliteMemory = ":memory:"

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	if err := enableForeignKeys(db); err != nil {
		return nil, err
	}
	return db, nil
}

// buildSQLiteDSN renders a file: URI for the configured path. File databases use WAL and a
// busy timeout so concurrent room broadcasts do not trip over the writer lock.
func buildSQLiteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, sqliteMemory) {
		opts := mergeOptions(map[string]string{
			"cache":         "shared",
			"_foreign_keys": "1",
		}, cfg.Options)
		return "file:" + sqliteMemory + "?" + strings.Join(opts, "&"), nil
	}

	if err := ensureDir(path); err != nil {
		return "", fmt.Errorf("prepare sqlite directory: %w", err)
	}
	opts := mergeOptions(map[string]string{
		"_foreign_keys": "1",
		"_journal_mode": "WAL",
		"_busy_timeout": "5000",
	}, cfg.Options)
	return fmt.Sprintf("file:%s?%s", filepath.ToSlash(path), strings.Join(opts, "&")), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Cascades on slides and elements rely on the pragma; the DSN flag alone is driver specific.
func enableForeignKeys(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil && err != sql.ErrConnDone {
		return err
	}
	return nil
}
