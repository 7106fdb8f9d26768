package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys
const (
	Port           = "PORT"
	GinMode        = "GIN_MODE"
	LogLevel       = "LOG_LEVEL"
	RequestTimeout = "REQUEST_TIMEOUT"

	StorageDriver = "STORAGE_DRIVER"
	DBDSN         = "DB_DSN"
	DBMaxConns    = "DB_MAX_CONNS"

	SeedDemoData = "SEED_DEMO_DATA"
)

// storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LogLevel string
	SeedDemo bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	GinMode        string
	RequestTimeout time.Duration
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver   string
	DSN      string
	MaxConns int32
}

// Load reads configuration from the environment, falling back to an optional
// app.env file in the working directory
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString(Port),
			GinMode:        v.GetString(GinMode),
			RequestTimeout: v.GetDuration(RequestTimeout),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(v.GetString(StorageDriver)),
			DSN:      v.GetString(DBDSN),
			MaxConns: v.GetInt32(DBMaxConns),
		},
		LogLevel: v.GetString(LogLevel),
		SeedDemo: v.GetBool(SeedDemoData),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(Port, "8080")
	v.SetDefault(GinMode, "release")
	v.SetDefault(LogLevel, "info")
	v.SetDefault(RequestTimeout, "5s")

	v.SetDefault(StorageDriver, DriverMemory)
	v.SetDefault(DBDSN, "")
	v.SetDefault(DBMaxConns, 10)

	v.SetDefault(SeedDemoData, true)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.Server.RequestTimeout)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", DBDSN, StorageDriver, DriverPostgres)
		}
		if c.Storage.MaxConns <= 0 {
			return fmt.Errorf("%s must be positive", DBMaxConns)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
