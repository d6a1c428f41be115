package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	Transport             string        `mapstructure:"transport"`
	UserAgent             string        `mapstructure:"user_agent"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	PublishersFile        string        `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

const envFile = "configs/.env"

var keys = []string{
	"app_name", "app_env", "log_level", "transport", "user_agent", "request_timeout_seconds",
	"publishers_file", "storage_type", "bbolt_path", "storage_ttl_seconds",
	"storage_cleanup_interval_seconds",
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load(envFile)

	v := viper.New()

	v.SetDefault("app_name", "apireq")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("transport", "resty")
	v.SetDefault("user_agent", "apireq/1.0")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/validators.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetEnvPrefix("APIREQ")
	v.AutomaticEnv()
	for _, k := range keys {
		// Unmarshal only sees env values for keys viper knows about.
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
