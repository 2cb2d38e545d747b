package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPPort string
	LogLevel string

	StoreDriver string
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	JWTSecret    string
	JWTExpiresIn time.Duration
	CookieSecure bool

	RedisURL       string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	TrustedProxies []string

	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminName     string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	c := &Config{
		HTTPPort:          orDefault(getenv("HTTP_PORT"), "8080"),
		LogLevel:          orDefault(getenv("LOG_LEVEL"), "info"),
		StoreDriver:       strings.ToLower(orDefault(getenv("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:       getenv("DATABASE_URL"),
		MongoURI:          orDefault(getenv("MONGODB_URI"), getenv("AZURE_COSMOS_DB_CONNECTION_STRING")),
		MongoDB:           orDefault(getenv("MONGODB_DB_NAME"), "document-verification"),
		JWTSecret:         getenv("JWT_SECRET"),
		JWTExpiresIn:      parseDuration(getenv("JWT_EXPIRES_IN"), 7*24*time.Hour),
		CookieSecure:      getenv("COOKIE_SECURE") == "true" && getenv("ALLOW_INSECURE_COOKIES") != "true",
		RedisURL:          getenv("REDIS_URL"),
		AuthRateLimit:     parseInt(getenv("AUTH_RATE_LIMIT"), 10),
		AuthRateWindow:    parseDuration(getenv("AUTH_RATE_WINDOW"), time.Minute),
		TrustedProxies:    splitList(getenv("TRUSTED_PROXIES")),
		SeedAdminEmail:    getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: getenv("SEED_ADMIN_PASSWORD"),
		SeedAdminName:     orDefault(getenv("SEED_ADMIN_NAME"), "Administrator"),
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is empty")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI or AZURE_COSMOS_DB_CONNECTION_STRING is empty")
		}
	case DriverMemory:
	default:
		return errors.New("unknown STORE_DRIVER " + strconv.Quote(c.StoreDriver))
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
