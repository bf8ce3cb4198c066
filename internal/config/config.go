package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	Port           string
	DatabaseDSN    string
	Env            string
	SessionTTLDays int
	CookieSecure   bool
	AllowedOrigins []string
	LogLevel       string
}

const (
	defaultDSN            = "host=localhost user=postgres password=postgres dbname=chat port=5432 sslmode=disable TimeZone=UTC"
	defaultSessionTTLDays = 7
)

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvPositiveInt 在值缺失、非法或非正数时回退到默认值。
func getenvPositiveInt(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	return Config{
		Port:           getenv("APP_PORT", "8080"),
		DatabaseDSN:    getenv("DATABASE_DSN", getenv("DATABASE_URL", defaultDSN)),
		Env:            getenv("APP_ENV", "dev"),
		SessionTTLDays: getenvPositiveInt("SESSION_TTL_DAYS", defaultSessionTTLDays),
		CookieSecure:   getenvBool("COOKIE_SECURE", false),
		AllowedOrigins: splitList(getenv("CORS_ORIGINS", "")),
		LogLevel:       getenv("LOG_LEVEL", ""),
	}
}

// SessionTTL 是会话 cookie 与 sessions.expires_at 共用的有效期。
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

// Validate 在启动时拒绝明显错误的配置。
func Validate(c Config) error {
	if c.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if c.SessionTTLDays <= 0 {
		return errors.New("SESSION_TTL_DAYS must be positive")
	}
	if c.Env == "prod" && !c.CookieSecure {
		return errors.New("COOKIE_SECURE must be enabled in prod")
	}
	return nil
}
