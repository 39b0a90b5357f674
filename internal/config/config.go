// Package config loads the user service configuration from the
// environment, with a best-effort .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full user service configuration.
type Config struct {
	Addr        string `env:"USERSVC_ADDR" envDefault:":8081"`
	ServiceName string `env:"USERSVC_SERVICE_NAME" envDefault:"usersvc"`
	LogLevel    string `env:"USERSVC_LOG_LEVEL" envDefault:"debug"`

	// JWTS is the JWKS source handed to the router: a URL or an inline
	// JWKS JSON document. Leaving it empty restricts the service to
	// public routes.
	JWTS string `env:"USERSVC_JWTS"`
	// DefaultScope applies to private routes whose controller declares
	// no scope of its own.
	DefaultScope string `env:"USERSVC_DEFAULT_SCOPE"`
	// ControllerDir is the root of the embedded route manifest tree.
	ControllerDir string `env:"USERSVC_CONTROLLER_DIR" envDefault:"manifests"`

	// CORSOrigins narrows the allowed origins; empty allows all.
	CORSOrigins []string `env:"USERSVC_CORS_ORIGINS" envSeparator:","`

	Database Database `envPrefix:"USERSVC_DB_"`
}

// Database holds the Postgres connection settings.
type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"usersvc"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"usersvc"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN renders the keyword/value connection string pgx understands.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads .env when present, then parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
