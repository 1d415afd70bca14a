package database

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"

	"github.com/yi-nology/mediahub/pkg/config"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "media.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: path}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !db.Config.TranslateError {
		t.Fatalf("expected TranslateError to be enabled")
	}
}

func TestOpenRejectsMissingSettings(t *testing.T) {
	cases := []config.DatabaseConfig{
		{Driver: "sqlite"},
		{Driver: "mysql"},
		{Driver: "postgres"},
		{Driver: "oracle"},
	}
	for _, cfg := range cases {
		if _, err := Open(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestLogLevel(t *testing.T) {
	if LogLevel("silent") != logger.Silent || LogLevel("") != logger.Warn || LogLevel("debug") != logger.Info {
		t.Fatalf("unexpected log level mapping")
	}
}
