package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken             string
	DatabaseURL          string
	AdminIDs             []int64
	Location             *time.Location
	HTTPAddr             string
	LogLevel             string
	Env                  string // dev|prod
	SentryDSN            string
	BalanceCheckInterval time.Duration
}

// Load читает конфигурацию из окружения. BOT_TOKEN проверяется только командой serve.
func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}

	dsn, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(getenv("BALANCE_CHECK_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("BALANCE_CHECK_INTERVAL: %w", err)
	}

	cfg := &Config{
		BotToken:             os.Getenv("BOT_TOKEN"),
		DatabaseURL:          dsn,
		AdminIDs:             adminIDs,
		Location:             loc,
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		Env:                  getenv("ENV", "dev"),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		BalanceCheckInterval: interval,
	}
	return cfg, nil
}

// IsAdmin: chatID есть в списке проверяющих.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func requireEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("required env %s is empty", k)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
