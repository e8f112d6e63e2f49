package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Activity  ActivityConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
	// TrustProxy makes the client address come from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
}

type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	SQLitePath     string
	MigrationsPath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	Enabled  bool
}

type TokenConfig struct {
	TTLHours          int
	CacheTTLSeconds   int
	AuthHeaderSchemes []string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ActivityConfig struct {
	Enabled       bool
	RetentionDays int
	PruneCron     string // standard five field cron expression
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL renders the connection string in the form golang-migrate expects.
func (d *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TTL returns zero when tokens never expire.
func (t *TokenConfig) TTL() time.Duration {
	return time.Duration(t.TTLHours) * time.Hour
}

func (t *TokenConfig) CacheTTL() time.Duration {
	return time.Duration(t.CacheTTLSeconds) * time.Second
}

func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Retention returns zero when activity logs are kept forever.
func (a *ActivityConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_TRUST_PROXY", false)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "recipes")
	v.SetDefault("DATABASE_PASSWORD", "recipes_secret")
	v.SetDefault("DATABASE_NAME", "recipes")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_SQLITE_PATH", "recipes.db")
	v.SetDefault("DATABASE_MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("TOKEN_TTL_HOURS", 0)
	v.SetDefault("TOKEN_CACHE_SECONDS", 300)
	v.SetDefault("TOKEN_AUTH_SCHEMES", "Token,Bearer")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("ACTIVITY_ENABLED", true)
	v.SetDefault("ACTIVITY_RETENTION_DAYS", 90)
	v.SetDefault("ACTIVITY_PRUNE_CRON", "0 3 * * *")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:       v.GetString("SERVER_HOST"),
			Port:       v.GetInt("SERVER_PORT"),
			Env:        v.GetString("SERVER_ENV"),
			TrustProxy: v.GetBool("SERVER_TRUST_PROXY"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Host:           v.GetString("DATABASE_HOST"),
			Port:           v.GetInt("DATABASE_PORT"),
			User:           v.GetString("DATABASE_USER"),
			Password:       v.GetString("DATABASE_PASSWORD"),
			Name:           v.GetString("DATABASE_NAME"),
			SSLMode:        v.GetString("DATABASE_SSLMODE"),
			SQLitePath:     v.GetString("DATABASE_SQLITE_PATH"),
			MigrationsPath: v.GetString("DATABASE_MIGRATIONS_PATH"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		Token: TokenConfig{
			TTLHours:          v.GetInt("TOKEN_TTL_HOURS"),
			CacheTTLSeconds:   v.GetInt("TOKEN_CACHE_SECONDS"),
			AuthHeaderSchemes: splitList(v.GetString("TOKEN_AUTH_SCHEMES")),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Activity: ActivityConfig{
			Enabled:       v.GetBool("ACTIVITY_ENABLED"),
			RetentionDays: v.GetInt("ACTIVITY_RETENTION_DAYS"),
			PruneCron:     v.GetString("ACTIVITY_PRUNE_CRON"),
		},
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
