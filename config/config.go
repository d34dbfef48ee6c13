package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Config struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		Server  ServerConfig   `envPrefix:"HTTP_"`
		DB      DatabaseConfig `envPrefix:"DB_"`
		Auth    AuthConfig     `envPrefix:"AUTH_"`
		Uploads UploadConfig   `envPrefix:"UPLOAD_"`
	}

	ServerConfig struct {
		Port           string   `env:"PORT" envDefault:"8080"`
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	}

	DatabaseConfig struct {
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     string `env:"PORT" envDefault:"5432"`
		User     string `env:"USERNAME"`
		Password string `env:"PASSWORD"`
		Name     string `env:"NAME" envDefault:"spotmap"`
	}

	AuthConfig struct {
		JWTSecret          string        `env:"JWT_SECRET"`
		AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
		RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
		Issuer             string        `env:"ISSUER" envDefault:"spotmap"`
		GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
		GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
		GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL" envDefault:"postmessage"`
	}

	// UploadConfig locates image files on disk. Dirs is an ordered list of
	// subdirectories under Root searched when resolving or deleting a file;
	// the first entry is where new uploads are written. Later entries exist
	// only to keep files from the old "markers" layout reachable.
	UploadConfig struct {
		Root string   `env:"ROOT" envDefault:"./uploads"`
		Dirs []string `env:"DIRS" envSeparator:"," envDefault:"images,markers"`
	}
)

func Read() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET environment variable is required")
	}
	if cfg.Uploads.Root == "" || len(cfg.Uploads.Dirs) == 0 {
		return nil, fmt.Errorf("UPLOAD_ROOT and UPLOAD_DIRS must not be empty")
	}
	return cfg, nil
}
