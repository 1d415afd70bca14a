package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/yi-nology/mediahub/pkg/validator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDIA"

const (
	DriverLocal = "local"
	DriverS3    = "s3"

	// DefaultInvalidURL is returned by URL synthesis when an asset cannot be resolved.
	DefaultInvalidURL = "#invalid-media-url"
)

// Config captures service level configuration loaded from config.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Upload   UploadConfig   `yaml:"upload"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// RedisConfig defines Redis connection settings for distributed locking.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled" split_words:"true"`
	Address   string        `yaml:"address" split_words:"true"`
	Password  string        `yaml:"password" split_words:"true"`
	DB        int           `yaml:"db" split_words:"true"`
	KeyPrefix string        `yaml:"key_prefix" split_words:"true"`
	LockTTL   time.Duration `yaml:"lock_ttl" split_words:"true"`
	LockWait  time.Duration `yaml:"lock_wait" split_words:"true"`
}

// UploadConfig defines file upload constraints.
type UploadConfig struct {
	MaxSize      int64    `yaml:"max_size"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// LogConfig controls the process wide logger.
type LogConfig struct {
	Level string `yaml:"level" split_words:"true"`
}

// StorageConfig lists the named disks assets can live on.
type StorageConfig struct {
	Default    string                `yaml:"default"`
	InvalidURL string                `yaml:"invalid_url"`
	Disks      map[string]DiskConfig `yaml:"disks"`
}

// DiskConfig describes one named disk. Driver is "local" or "s3".
// A local disk with Secure set is only reachable through token URLs.
type DiskConfig struct {
	Driver    string        `yaml:"driver"`
	Secure    bool          `yaml:"secure"`
	Root      string        `yaml:"root"`
	URL       string        `yaml:"url" split_words:"true"`
	Endpoint  string        `yaml:"endpoint" split_words:"true"`
	Region    string        `yaml:"region" split_words:"true"`
	Bucket    string        `yaml:"bucket" split_words:"true"`
	AccessKey string        `yaml:"access_key" split_words:"true"`
	SecretKey string        `yaml:"secret_key" split_words:"true"`
	PathStyle bool          `yaml:"path_style"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DatabaseConfig defines the database backend configuration.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	LogLevel string         `yaml:"log_level"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig contains MySQL specific connection details.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// PostgresConfig contains PostgreSQL specific connection details.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// databaseEnv holds MEDIA_DB_* overrides.
type databaseEnv struct {
	Driver string `split_words:"true"`
	DSN    string `split_words:"true"`
}

// Load reads a YAML configuration file from the provided path, then applies
// .env and MEDIA_* environment overrides.
// It searches in the current working directory first, then next to the binary executable.
func Load(name string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	configPath := findConfigFile(name)
	if configPath == "" {
		hlog.Warnf("config file %q not found, using defaults", name)
	} else {
		hlog.Infof("loading config from: %s", configPath)
		parsed, err := decodeFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	applyDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var parsed Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &parsed, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:   "sqlite",
			LogLevel: "warn",
			SQLite: SQLiteConfig{
				Path: "data/media.db",
			},
		},
		Storage: StorageConfig{
			Default:    "media",
			InvalidURL: DefaultInvalidURL,
			Disks:      defaultDisks(),
		},
		Upload: UploadConfig{
			MaxSize:      20 * 1024 * 1024,
			AllowedTypes: defaultAllowedTypes(),
		},
		Redis: RedisConfig{
			Address:   "localhost:6379",
			KeyPrefix: "mediahub:lock:",
			LockTTL:   30 * time.Second,
			LockWait:  5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultAllowedTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/svg+xml",
		"image/avif",
		"application/pdf",
		"application/zip",
		"text/plain",
		"text/csv",
		"video/mp4",
		"video/webm",
		"audio/mpeg",
	}
}

func defaultDisks() map[string]DiskConfig {
	return map[string]DiskConfig{
		"media": {
			Driver: DriverLocal,
			Secure: true,
			Root:   "storage/app/media",
		},
		"local": {
			Driver: DriverLocal,
			Root:   "public/assets/uploads",
		},
		"r2": {
			Driver:    DriverS3,
			Region:    "auto",
			PathStyle: true,
			Timeout:   10 * time.Second,
		},
		"s3": {
			Driver:  DriverS3,
			Region:  "us-east-1",
			Timeout: 10 * time.Second,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/media.db"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if len(cfg.Storage.Disks) == 0 {
		cfg.Storage.Disks = defaultDisks()
	}
	for name, disk := range cfg.Storage.Disks {
		if disk.Driver == "" {
			disk.Driver = DriverLocal
		}
		if disk.Driver == DriverS3 && disk.Timeout <= 0 {
			disk.Timeout = 10 * time.Second
		}
		cfg.Storage.Disks[name] = disk
	}
	if cfg.Storage.Default == "" {
		cfg.Storage.Default = "media"
	}
	if cfg.Storage.InvalidURL == "" {
		cfg.Storage.InvalidURL = DefaultInvalidURL
	}
	if cfg.Upload.MaxSize <= 0 {
		cfg.Upload.MaxSize = 20 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = defaultAllowedTypes()
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "mediahub:lock:"
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	if cfg.Redis.LockWait <= 0 {
		cfg.Redis.LockWait = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// applyEnv overlays MEDIA_* variables. Empty variables never clear file values.
func applyEnv(cfg *Config) error {
	var db databaseEnv
	if err := envconfig.Process(EnvPrefix+"_DB", &db); err != nil {
		return fmt.Errorf("parse database env: %w", err)
	}
	if db.Driver != "" {
		cfg.Database.Driver = db.Driver
	}
	if db.DSN != "" {
		switch strings.ToLower(cfg.Database.Driver) {
		case "mysql":
			cfg.Database.MySQL.DSN = db.DSN
		case "postgres", "postgresql":
			cfg.Database.Postgres.DSN = db.DSN
		default:
			cfg.Database.SQLite.Path = db.DSN
		}
	}

	redisEnv := cfg.Redis
	if err := envconfig.Process(EnvPrefix+"_REDIS", &redisEnv); err != nil {
		return fmt.Errorf("parse redis env: %w", err)
	}
	cfg.Redis = redisEnv

	logEnv := cfg.Log
	if err := envconfig.Process(EnvPrefix+"_LOG", &logEnv); err != nil {
		return fmt.Errorf("parse log env: %w", err)
	}
	cfg.Log = logEnv

	for name, disk := range cfg.Storage.Disks {
		prefix := EnvPrefix + "_DISK_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		overlay := disk
		if err := envconfig.Process(prefix, &overlay); err != nil {
			return fmt.Errorf("parse env for disk %q: %w", name, err)
		}
		cfg.Storage.Disks[name] = overlay
	}
	return nil
}

// Validate checks disk names and drivers.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	for _, name := range c.DiskNames() {
		if !validator.ValidateDiskName(name) {
			return fmt.Errorf("invalid disk name %q", name)
		}
		switch c.Storage.Disks[name].Driver {
		case DriverLocal, DriverS3:
		default:
			return fmt.Errorf("disk %q: unsupported driver %q", name, c.Storage.Disks[name].Driver)
		}
	}
	if _, ok := c.Storage.Disks[c.Storage.Default]; !ok {
		return fmt.Errorf("default disk %q is not configured", c.Storage.Default)
	}
	return nil
}

// DiskNames returns the configured disk names in a stable order.
func (c *Config) DiskNames() []string {
	names := make([]string, 0, len(c.Storage.Disks))
	for name := range c.Storage.Disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// findConfigFile searches for a config file in the current directory first,
// then next to the binary executable. Returns the full path or empty string.
func findConfigFile(name string) string {
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		return abs
	}

	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
