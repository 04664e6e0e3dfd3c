package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ServerConfig is the process-wide configuration, loaded once at startup
// from a TOML file and overridable through a few environment variables.
type ServerConfig struct {
	ListenAddr      string `toml:"listen_addr" validate:"required"`
	DataPath        string `toml:"data_path" validate:"required"`
	DevelopmentMode bool   `toml:"development_mode"`
	HandleCORS      bool   `toml:"handle_cors"`
	// BlobBaseURL is the external blob store serving repository bytes in
	// non-development deployments. GET requests redirect here.
	BlobBaseURL string `toml:"blob_base_url" validate:"required_if=DevelopmentMode false,omitempty,url"`
	// Storage selects the catalog store backend.
	Storage  string         `toml:"storage" validate:"oneof=postgres memory"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
}

type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

var (
	cfg  *ServerConfig
	once sync.Once
)

func defaultConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr: ":8080",
		DataPath:   "data",
		Storage:    "postgres",
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. An empty path loads defaults plus environment.
func Load(path string) (*ServerConfig, error) {
	c := defaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, err
		}
	}
	if dataPath := os.Getenv("DATA_PATH"); dataPath != "" {
		c.DataPath = dataPath
	}
	if dsn := os.Getenv("REPOSRV_POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if addr := os.Getenv("REPOSRV_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	abs, err := filepath.Abs(c.DataPath)
	if err != nil {
		return nil, err
	}
	c.DataPath = abs

	v := validator.New()
	if err := v.Struct(c); err != nil {
		return nil, err
	}
	if c.Storage == "postgres" && c.Postgres.DSN == "" {
		return nil, errors.New("config: postgres storage requires postgres.dsn")
	}
	cfg = c
	return c, nil
}

// Config returns the loaded configuration. Callers before Load see defaults.
func Config() *ServerConfig {
	once.Do(func() {
		if cfg == nil {
			cfg = defaultConfig()
			if abs, err := filepath.Abs(cfg.DataPath); err == nil {
				cfg.DataPath = abs
			}
		}
	})
	return cfg
}

// SetConfig replaces the process configuration. Intended for tests.
func SetConfig(c *ServerConfig) {
	cfg = c
}
