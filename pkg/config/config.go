// Package config loads settings from an optional YAML file, a .env file and
// JAMA_* environment variables, in that order of precedence (lowest first).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // Zone names must resolve on hosts without a tz database

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite3 sqlite postgres postgresql"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret" validate:"required,min=16"`
	TokenExpiry   time.Duration `yaml:"token_expiry" validate:"gt=0"`
	AdminName     string        `yaml:"admin_name"`
	AdminEmail    string        `yaml:"admin_email" validate:"omitempty,email"`
	AdminPassword string        `yaml:"admin_password" validate:"required_with=AdminEmail,omitempty,min=8"`
}

// RedisConfig enables ad counters when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// StorageConfig selects Cloud Storage when Bucket is set, else local disk.
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	Folder   string `yaml:"folder"`
	MediaDir string `yaml:"media_dir" validate:"required"`
	MediaURL string `yaml:"media_url" validate:"required"`

	// Report archives stay off the public media path: a private bucket
	// alongside Bucket, or ArchiveDir on local disk.
	ArchiveBucket string `yaml:"archive_bucket" validate:"required_with=Bucket"`
	ArchiveFolder string `yaml:"archive_folder"`
	ArchiveDir    string `yaml:"archive_dir" validate:"required"`
}

// JobsConfig holds cron specs; an empty spec disables the job.
type JobsConfig struct {
	Timezone     string `yaml:"timezone" validate:"required"`
	OverdueSweep string `yaml:"overdue_sweep"`
	DailyArchive string `yaml:"daily_archive"`
}

// ReportsConfig points PDF exports at a TrueType face, e.g. one covering
// Devanagari. Empty uses the embedded Go font.
type ReportsConfig struct {
	PDFFont     string `yaml:"pdf_font" validate:"required_with=PDFFontBold"`
	PDFFontBold string `yaml:"pdf_font_bold"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Reports  ReportsConfig  `yaml:"reports"`
	Logging  LogConfig      `yaml:"logging"`
}

// Location is the zone whose calendar decides "today".
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Jobs.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaults() AppConfig {
	return AppConfig{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "jama.db"},
		Auth:     AuthConfig{TokenExpiry: 24 * time.Hour, AdminName: "Super Admin"},
		Storage:  StorageConfig{Folder: "jama", ArchiveFolder: "jama", MediaDir: "media", MediaURL: "/media", ArchiveDir: "archive"},
		Jobs: JobsConfig{
			Timezone:     "Asia/Kolkata",
			OverdueSweep: "0 8 * * *",
			DailyArchive: "55 23 * * *",
		},
		Logging: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path when it is not empty, then .env, then the environment.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found")
	}
	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Server.Port = GetEnvOrDefaultAsInt("JAMA_PORT", cfg.Server.Port)
	cfg.Server.ShutdownTimeout = GetEnvOrDefaultAsDuration("JAMA_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Driver = GetEnvOrDefaultAsString("JAMA_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = GetEnvOrDefaultAsString("JAMA_DB_DSN", cfg.Database.DSN)

	cfg.Auth.JWTSecret = GetEnvOrDefaultAsString("JAMA_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenExpiry = GetEnvOrDefaultAsDuration("JAMA_TOKEN_EXPIRY", cfg.Auth.TokenExpiry)
	cfg.Auth.AdminName = GetEnvOrDefaultAsString("JAMA_ADMIN_NAME", cfg.Auth.AdminName)
	cfg.Auth.AdminEmail = GetEnvOrDefaultAsString("JAMA_ADMIN_EMAIL", cfg.Auth.AdminEmail)
	cfg.Auth.AdminPassword = GetEnvOrDefaultAsString("JAMA_ADMIN_PASSWORD", cfg.Auth.AdminPassword)

	cfg.Redis.Addr = GetEnvOrDefaultAsString("JAMA_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("JAMA_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("JAMA_REDIS_DB", cfg.Redis.DB)

	cfg.Storage.Bucket = GetEnvOrDefaultAsString("JAMA_GCS_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.Folder = GetEnvOrDefaultAsString("JAMA_GCS_FOLDER", cfg.Storage.Folder)
	cfg.Storage.MediaDir = GetEnvOrDefaultAsString("JAMA_MEDIA_DIR", cfg.Storage.MediaDir)
	cfg.Storage.MediaURL = GetEnvOrDefaultAsString("JAMA_MEDIA_URL", cfg.Storage.MediaURL)
	cfg.Storage.ArchiveBucket = GetEnvOrDefaultAsString("JAMA_GCS_ARCHIVE_BUCKET", cfg.Storage.ArchiveBucket)
	cfg.Storage.ArchiveFolder = GetEnvOrDefaultAsString("JAMA_GCS_ARCHIVE_FOLDER", cfg.Storage.ArchiveFolder)
	cfg.Storage.ArchiveDir = GetEnvOrDefaultAsString("JAMA_ARCHIVE_DIR", cfg.Storage.ArchiveDir)

	cfg.Jobs.Timezone = GetEnvOrDefaultAsString("JAMA_TIMEZONE", cfg.Jobs.Timezone)
	cfg.Jobs.OverdueSweep = GetEnvOrDefaultAsString("JAMA_OVERDUE_SWEEP", cfg.Jobs.OverdueSweep)
	cfg.Jobs.DailyArchive = GetEnvOrDefaultAsString("JAMA_DAILY_ARCHIVE", cfg.Jobs.DailyArchive)

	cfg.Reports.PDFFont = GetEnvOrDefaultAsString("JAMA_PDF_FONT", cfg.Reports.PDFFont)
	cfg.Reports.PDFFontBold = GetEnvOrDefaultAsString("JAMA_PDF_FONT_BOLD", cfg.Reports.PDFFontBold)

	cfg.Logging.Level = GetEnvOrDefaultAsString("JAMA_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = GetEnvOrDefaultAsString("JAMA_LOG_FORMAT", cfg.Logging.Format)
}

// Validate checks field rules, the timezone and every cron spec.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Bucket != "" && cfg.Storage.ArchiveBucket == cfg.Storage.Bucket {
		return fmt.Errorf("invalid config: storage.archive_bucket must differ from the public storage.bucket")
	}
	if _, err := time.LoadLocation(cfg.Jobs.Timezone); err != nil {
		return fmt.Errorf("invalid config: jobs.timezone: %w", err)
	}
	for name, spec := range map[string]string{
		"jobs.overdue_sweep": cfg.Jobs.OverdueSweep,
		"jobs.daily_archive": cfg.Jobs.DailyArchive,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
}

func GetEnvOrDefaultAsString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func GetEnvOrDefaultAsInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warn("Ignoring non-integer environment value")
		return def
	}
	return n
}

func GetEnvOrDefaultAsDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warn("Ignoring invalid duration environment value")
		return def
	}
	return d
}
