package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultPort      = 3000
	DefaultTraceDir  = "traces"
	DefaultStaticDir = "public"
	DefaultLocale    = "en-US"
)

// Config is read once at process start and passed down explicitly.
type Config struct {
	Port int

	// Trace enables a diagnostic artifact per extraction, written under TraceDir.
	Trace    bool
	TraceDir string

	StaticDir string

	// DatabaseURL is the postgres DSN for the run ledger, empty disables it.
	DatabaseURL string

	ChromeBin string
	Headless  bool
	Locale    string
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:        DefaultPort,
		Trace:       os.Getenv("ENABLE_TRACE") == "1",
		TraceDir:    getenvDefault("TRACE_DIR", DefaultTraceDir),
		StaticDir:   getenvDefault("STATIC_DIR", DefaultStaticDir),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ChromeBin:   os.Getenv("CHROME_BIN"),
		Headless:    true,
		Locale:      getenvDefault("LOCALE", DefaultLocale),
	}

	if p, ok := os.LookupEnv("PORT"); ok && p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("invalid PORT %q", p)
		}
		cfg.Port = port
	}

	if h, ok := os.LookupEnv("HEADLESS"); ok && h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return cfg, fmt.Errorf("invalid HEADLESS %q: %w", h, err)
		}
		cfg.Headless = headless
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
