package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Met        MetConfig        `yaml:"met"`
	Poller     PollerConfig     `yaml:"poller"`
	Database   DatabaseConfig   `yaml:"database"`
	Alert      AlertConfig      `yaml:"alert"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Map        MapConfig        `yaml:"map"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// MetConfig holds the api.met.no client configuration.
type MetConfig struct {
	BaseURL         string        `yaml:"base_url"`
	UserAgent       string        `yaml:"user_agent"`
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	RetryAttempts   uint          `yaml:"retry_attempts"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	Timeout         time.Duration `yaml:"-"`
	CacheTTL        time.Duration `yaml:"-"`
}

// PollerConfig holds the forecast poller configuration.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Timezone        string        `yaml:"timezone"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
}

// AlertConfig holds the wave alert configuration.
type AlertConfig struct {
	WaveThreshold  float64 `yaml:"wave_threshold"`
	OpeningHours   string  `yaml:"opening_hours"`
	Cron           string  `yaml:"cron"`
	LimitLocations int     `yaml:"limit_locations"`
	WindowRadius   int     `yaml:"window_radius"`
}

// SMTPConfig holds the outgoing mail configuration for wave alerts.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	To   string `yaml:"to"`
	From string `yaml:"from"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// MapConfig holds the map rendering configuration.
type MapConfig struct {
	CenterLat      float64 `yaml:"center_lat"`
	CenterLon      float64 `yaml:"center_lon"`
	BoundaryPath   string  `yaml:"boundary_path"`
	BoundaryObject string  `yaml:"boundary_object"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Met.BaseURL == "" {
		cfg.Met.BaseURL = "https://api.met.no"
	}
	if cfg.Met.UserAgent == "" {
		cfg.Met.UserAgent = "waves-on-map/1.0"
	}
	if cfg.Met.TimeoutSeconds <= 0 {
		cfg.Met.TimeoutSeconds = 30
	}
	if cfg.Met.RetryAttempts == 0 {
		cfg.Met.RetryAttempts = 3
	}
	if cfg.Met.CacheTTLSeconds <= 0 {
		// met.no terms of service require clients to cache responses.
		cfg.Met.CacheTTLSeconds = 600
	}
	cfg.Met.Timeout = time.Duration(cfg.Met.TimeoutSeconds) * time.Second
	cfg.Met.CacheTTL = time.Duration(cfg.Met.CacheTTLSeconds) * time.Second

	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 3600
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalSeconds) * time.Second
	if cfg.Poller.Timezone == "" {
		cfg.Poller.Timezone = "Europe/Oslo"
	}

	if cfg.Alert.WaveThreshold <= 0 {
		cfg.Alert.WaveThreshold = 0.5
	}
	if cfg.Alert.Cron == "" {
		cfg.Alert.Cron = "0 16 * * *"
	}
	if cfg.Alert.WindowRadius <= 0 {
		cfg.Alert.WindowRadius = 3
	}

	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Map.CenterLat == 0 && cfg.Map.CenterLon == 0 {
		cfg.Map.CenterLat = 59.8739721
		cfg.Map.CenterLon = 10.7449325
	}
}
