package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Taxonomy TaxonomyConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string   `env:"SERVER_PORT" envDefault:"8080"`
	GinMode     string   `env:"GIN_MODE" envDefault:"release"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type MongoConfig struct {
	URI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"MONGO_DBNAME" envDefault:"tailor_shop"`
}

// RedisConfig is optional: an empty URL turns caching and idempotency off.
type RedisConfig struct {
	URL    string `env:"REDIS_URL"`
	Prefix string `env:"REDIS_PREFIX" envDefault:"tailor:"`
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET,required"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CredentialsFile string        `env:"ADMIN_CREDENTIALS_FILE" envDefault:"data/admin.json"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

// TaxonomyConfig points at an override file; empty means the embedded document.
type TaxonomyConfig struct {
	File string `env:"TAXONOMY_FILE"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Auth.JWTSecret = strings.Trim(cfg.Auth.JWTSecret, "\"")

	return cfg, nil
}

// Addr returns the listen address for http.Server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}
