package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"okhouse/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	Logging     LoggingConfig     `yaml:"logging"`
	API         APIConfig         `yaml:"api"`
	Session     SessionConfig     `yaml:"session"`
	Reservation ReservationConfig `yaml:"reservation"`
	Redis       RedisConfig       `yaml:"redis"`
	Storage     StorageConfig     `yaml:"storage"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Export      ExportConfig      `yaml:"export"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// APIConfig describes the reservation backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
	// PrivilegedPrefix marks admin-scoped paths that require a session.
	PrivilegedPrefix string             `yaml:"privileged_prefix"`
	RateLimit        APIRateLimitConfig `yaml:"rate_limit"`
	// CacheListings keeps GET listings in Redis for a short while.
	CacheListings bool `yaml:"cache_listings"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SessionConfig tunes the admin session. Durations are in seconds.
type SessionConfig struct {
	MonitorInterval  int    `yaml:"monitor_interval"`
	RefreshThreshold int    `yaml:"refresh_threshold"`
	PersistKey       string `yaml:"persist_key"`
	// Store is where the access token is persisted: memory, redis or sqlite.
	Store string `yaml:"store"`
}

type ReservationConfig struct {
	MinNights int `yaml:"min_nights"`
	MaxNights int `yaml:"max_nights"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if !strings.HasPrefix(c.API.PrivilegedPrefix, "/") {
		return errors.New("api.privileged_prefix must start with /")
	}

	if c.Reservation.MinNights < 1 {
		return errors.New("reservation.min_nights must be at least 1")
	}
	if c.Reservation.MaxNights < c.Reservation.MinNights {
		return fmt.Errorf("reservation.max_nights (%d) is below min_nights (%d)", c.Reservation.MaxNights, c.Reservation.MinNights)
	}

	if c.Session.RefreshThreshold >= c.Session.MonitorInterval*10 {
		return errors.New("session.refresh_threshold is too large for the monitor interval")
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Address == "" {
			return errors.New("session.store=redis requires redis.address")
		}
	case StoreSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("session.store=sqlite requires storage.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown session.store %q", c.Session.Store)
	}

	if c.API.CacheListings && c.Redis.Address == "" {
		return errors.New("api.cache_listings requires redis.address")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "okhouse-console"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000/api/v1"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 10
	}
	if c.API.PrivilegedPrefix == "" {
		c.API.PrivilegedPrefix = "/admin/"
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 1
	}

	if c.Session.MonitorInterval == 0 {
		c.Session.MonitorInterval = models.DefaultMonitorInterval
	}
	if c.Session.RefreshThreshold == 0 {
		c.Session.RefreshThreshold = models.DefaultRefreshThreshold
	}
	if c.Session.PersistKey == "" {
		c.Session.PersistKey = models.DefaultPersistKey
	}
	if c.Session.Store == "" {
		c.Session.Store = StoreMemory
	}
	c.Session.Store = strings.ToLower(c.Session.Store)

	if c.Reservation.MinNights == 0 {
		c.Reservation.MinNights = models.DefaultMinNights
	}
	if c.Reservation.MaxNights == 0 {
		c.Reservation.MaxNights = models.DefaultMaxNights
	}

	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Export.Path == "" {
		c.Export.Path = "exports"
	}
}

// RequestTimeout returns api.timeout as a duration.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c SessionConfig) MonitorEvery() time.Duration {
	return time.Duration(c.MonitorInterval) * time.Second
}

func (c SessionConfig) Threshold() time.Duration {
	return time.Duration(c.RefreshThreshold) * time.Second
}
