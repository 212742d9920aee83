package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the service configuration.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Host   string `envconfig:"HOST" default:"0.0.0.0"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	Postgres struct {
		Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
		Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
		User     string `envconfig:"POSTGRES_USER" default:"postgres"`
		Password string `envconfig:"POSTGRES_PASSWORD"`
		DB       string `envconfig:"POSTGRES_DB" default:"social_feed"`
	} `envconfig:""`

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
		WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
		IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Feed struct {
		DefaultPageSize int `envconfig:"FEED_DEFAULT_PAGE_SIZE" default:"20"`
		MaxPageSize     int `envconfig:"FEED_MAX_PAGE_SIZE" default:"100"`
	} `envconfig:""`
}

// Load reads the configuration from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// DSN returns PG_DSN when set, otherwise composes one from the discrete
// POSTGRES_* parts.
func (c AppConfig) DSN() string {
	if c.PGDSN != "" {
		return c.PGDSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DB,
	)
}
