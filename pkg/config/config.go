package config

import (
	"time"

	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"golang.org/x/exp/slog"
)

type HubDbConfig struct {
	Host     string `env:"HUB_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"HUB_PG_PORT" env-default:"5432"`
	Database string `env:"HUB_PG_DATABASE" env-default:"hub_db"`
	User     string `env:"HUB_PG_USER" env-default:"hub"`
	Password string `env:"HUB_PG_PASSWORD" env-default:"pwd"`
}

func (d HubDbConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

type JwtConfig struct {
	Secret            string `env:"JWT_SECRET" env-required:"true"`
	Issuer            string `env:"JWT_ISSUER" env-default:"identity-hub"`
	Audience          string `env:"JWT_AUDIENCE" env-default:"identity-hub"`
	AccessTokenExpiry string `env:"ACCESS_TOKEN_EXPIRY" env-default:"8h"`
	TempTokenExpiry   string `env:"TEMP_TOKEN_EXPIRY" env-default:"10m"`
}

type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

type RateLimitConfig struct {
	// MaxConcurrent caps in-flight requests on the public auth endpoints.
	MaxConcurrent int `env:"HUB_THROTTLE_LIMIT" env-default:"100"`
}

type ResetConfig struct {
	BaseURL       string `env:"HUB_BASE_URL" env-default:"http://localhost:4000"`
	ResetTokenTTL string `env:"RESET_TOKEN_TTL" env-default:"72h"`
}

type Config struct {
	HubDbConfig     HubDbConfig
	AppConfig       app.AppConfig
	JwtConfig       JwtConfig
	EmailConfig     EmailConfig
	ResetConfig     ResetConfig
	RateLimitConfig RateLimitConfig
}

// ParseDuration parses a duration string, falling back to the given default
// when the value is empty or malformed.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration, using default", "value", value, "default", fallback)
		return fallback
	}
	return d
}
