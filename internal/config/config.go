package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime setting the application needs. It is
// built once in main and passed explicitly to the components that use
// it; nothing reads the environment after startup.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseURL string

	SecretKey          string
	RefreshTokenSecret string
	JWTIssuer          string
	JWTAudience        string

	ClockSkew       time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigins []string

	LoginRatePerMinute   int
	RefreshRatePerMinute int
}

// Load reads the configuration from environment variables and
// validates it. Call godotenv.Load first if a .env file should be
// honored.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:          getEnv("ENVIRONMENT", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SecretKey:            os.Getenv("SECRET_KEY"),
		RefreshTokenSecret:   os.Getenv("REFRESH_TOKEN_SECRET"),
		JWTIssuer:            getEnv("JWT_ISSUER", "backend-starter-api"),
		JWTAudience:          getEnv("JWT_AUDIENCE", "backend-starter-api"),
		ClockSkew:            time.Duration(getEnvInt("CLOCK_SKEW_SECONDS", 30)) * time.Second,
		AccessTokenTTL:       time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL:      time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 30)) * 24 * time.Hour,
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LoginRatePerMinute:   getEnvInt("AUTH_LOGIN_RATE_LIMIT", 5),
		RefreshRatePerMinute: getEnvInt("AUTH_REFRESH_RATE_LIMIT", 10),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate fails fast on insecure or incomplete settings.
func (c *Config) validate() error {
	if err := checkSecret("SECRET_KEY", c.SecretKey); err != nil {
		return err
	}
	if err := checkSecret("REFRESH_TOKEN_SECRET", c.RefreshTokenSecret); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if strings.EqualFold(c.Environment, "production") && strings.HasPrefix(c.DatabaseURL, "sqlite") {
		return fmt.Errorf("DATABASE_URL must not use sqlite in production")
	}
	return nil
}

func checkSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 bytes", name)
	}
	if strings.EqualFold(value, "change-me") {
		return fmt.Errorf("%s must be set to a strong value", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
