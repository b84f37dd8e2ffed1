package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppDirName = "vehicle-inventory"
	DBFileName = "vehicle-inventory.db"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string
	DB       DBConfig
	Sync     SyncConfig
	Stock    StockConfig
	R2       R2Config
}

type DBConfig struct {
	Path    string
	Drivers []string
}

// SyncConfig holds the optional remote mirror. An empty URL means local-only mode.
type SyncConfig struct {
	URL      string
	Key      string
	Database string
	Interval time.Duration
}

type StockConfig struct {
	CheckInterval time.Duration
}

type R2Config struct {
	AccountID       string
	Bucket          string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		DB: DBConfig{
			Path:    getEnv("DB_PATH", DefaultDBPath()),
			Drivers: getEnvSlice("DB_DRIVERS", []string{"sqlite3", "sqlite", "mock"}),
		},
		Sync: SyncConfig{
			URL:      os.Getenv("SYNC_URL"),
			Key:      os.Getenv("SYNC_KEY"),
			Database: getEnv("SYNC_DATABASE", "vehicle_inventory"),
			Interval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		},
		Stock: StockConfig{
			CheckInterval: getEnvDuration("STOCK_CHECK_INTERVAL", 30*time.Minute),
		},
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			Bucket:          os.Getenv("R2_BUCKET"),
			PublicURL:       os.Getenv("R2_PUBLIC_URL"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		},
	}
	return cfg
}

// SyncEnabled reports whether remote credentials were supplied.
func (c *Config) SyncEnabled() bool {
	return c.Sync.URL != ""
}

// DefaultDBPath places the database in the per-user application data directory,
// falling back to the working directory when the platform does not define one.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DBFileName
	}
	return filepath.Join(dir, AppDirName, DBFileName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
