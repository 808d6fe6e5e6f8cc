package config

import (
	"ctchen222/tictactoe-minimax/internal/bot"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrMissingJWTSecret is returned when no token signing secret is configured.
var ErrMissingJWTSecret = errors.New("jwt secret is not configured")

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr   string `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./tictactoe.db"`
	Redis      Redis  `yaml:"redis"`
	Auth       Auth   `yaml:"auth"`
	Otel       Otel   `yaml:"otel"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt-secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token-ttl" env:"JWT_TOKEN_TTL" env-default:"72h"`
}

// Otel configures export. An empty endpoint keeps telemetry local.
type Otel struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tictactoe-minimax"`
}

type Game struct {
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"30m"`
	Bot        bot.Delays    `yaml:"bot-delay"`
}

// Load reads the YAML file at path if it exists, otherwise the environment.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := cleanenv.ReadConfig(path, config); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return config, config.validate()
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to load config from environment: %w", err)
	}
	return config, config.validate()
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// MustLoad - load all configurations, panicking on failure.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}
