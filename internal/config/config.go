package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
type Config struct {
	Server ServerConfig
	Exec   ExecConfig
	Redis  RedisConfig
}

type ServerConfig struct {
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RateLimit     int
	GinMode       string
	AllowedOrigin string
	MaxCodeBytes  int
}

type ExecConfig struct {
	Timeout time.Duration
	WorkDir string
}

type RedisConfig struct {
	// URL enables the cross-instance broadcast bus when non-empty.
	URL string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", 5002)
	viper.SetDefault("READ_TIMEOUT", "10s")
	// A /run request blocks until the child exits; the write timeout must
	// outlive EXEC_TIMEOUT or responses get cut off. 0 disables it.
	viper.SetDefault("WRITE_TIMEOUT", "0")
	viper.SetDefault("RATE_LIMIT", 60)
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("ALLOWED_ORIGIN", "*")
	viper.SetDefault("MAX_CODE_BYTES", 1<<20)
	viper.SetDefault("EXEC_TIMEOUT", "10s")
	viper.SetDefault("EXEC_WORKDIR", filepath.Join(os.TempDir(), "codelive"))
	viper.SetDefault("REDIS_URL", "")

	// Attempt to read .env file (non-fatal if missing)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	cfg.Server.Port = viper.GetInt("PORT")
	cfg.Server.ReadTimeout = viper.GetDuration("READ_TIMEOUT")
	cfg.Server.WriteTimeout = viper.GetDuration("WRITE_TIMEOUT")
	cfg.Server.RateLimit = viper.GetInt("RATE_LIMIT")
	cfg.Server.GinMode = viper.GetString("GIN_MODE")
	cfg.Server.AllowedOrigin = viper.GetString("ALLOWED_ORIGIN")
	cfg.Server.MaxCodeBytes = viper.GetInt("MAX_CODE_BYTES")
	cfg.Exec.Timeout = viper.GetDuration("EXEC_TIMEOUT")
	cfg.Exec.WorkDir = viper.GetString("EXEC_WORKDIR")
	cfg.Redis.URL = viper.GetString("REDIS_URL")

	return cfg, nil
}
