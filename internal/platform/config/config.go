package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Port         string        `envconfig:"SERVER_PORT" default:"8000"`
		ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
		WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
		BodyLimit    string        `envconfig:"SERVER_BODY_LIMIT" default:"16MB"`
	}
	Log struct {
		Level     string `envconfig:"LOG_LEVEL" default:"debug"`
		Format    string `envconfig:"LOG_FORMAT" default:"json"`
		AddSource bool   `envconfig:"LOG_ADD_SOURCE" default:"true"`
	}
	Postgres struct {
		MaxConns          int32         `envconfig:"PGX_MAX_CONNS" default:"20"`
		MinConns          int32         `envconfig:"PGX_MIN_CONNS" default:"5"`
		MaxConnLifetime   time.Duration `envconfig:"PGX_MAX_CONN_LIFETIME" default:"30m"`
		MaxConnIdleTime   time.Duration `envconfig:"PGX_MAX_CONN_IDLE_TIME" default:"5m"`
		HealthCheckPeriod time.Duration `envconfig:"PGX_HEALTH_CHECK_PERIOD" default:"1m"`
		ConnectTimeout    time.Duration `envconfig:"PGX_CONNECT_TIMEOUT" default:"5s"`
	}
	Database struct {
		Host     string `envconfig:"DB_HOST" required:"true"`
		Port     int    `envconfig:"DB_PORT" required:"true"`
		User     string `envconfig:"DB_USER" required:"true"`
		Password string `envconfig:"DB_PASSWORD" required:"true"`
		Name     string `envconfig:"DB_NAME" required:"true"`
		SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	}
	Auth struct {
		// The two signing secrets are intentionally distinct: a token signed for
		// one purpose must never verify against the other secret
		AccessTokenSecret  string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
		RefreshTokenSecret string        `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
		AccessTokenTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"240h"`
		PasswordPepper     string        `envconfig:"PASSWORD_PEPPER" default:""`
		SecureCookies      bool          `envconfig:"SECURE_COOKIES" default:"true"`
	}
	S3 struct {
		Endpoint      string `envconfig:"S3_ENDPOINT" required:"true"`
		Region        string `envconfig:"S3_REGION" default:"us-east-1"`
		Bucket        string `envconfig:"S3_BUCKET" default:"viewtube-media"`
		AccessKey     string `envconfig:"S3_ACCESS_KEY" required:"true"`
		SecretKey     string `envconfig:"S3_SECRET_KEY" required:"true"`
		PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL" required:"true"`
	}
}

// DSN builds the postgres connection string from the database section
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %s", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config from environment: %w", err)
	}
	return &cfg, nil
}
