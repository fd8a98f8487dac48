package config

import (
	"os"

	"github.com/spf13/pflag"
)

type Config struct {
	Addr    string
	DBPath  string
	WebDir  string
	LogMode string
}

func defaults() Config {
	return Config{
		Addr:    envOr("NEXTCHARGE_ADDR", "127.0.0.1:7540"),
		DBPath:  envOr("NEXTCHARGE_DB", "./nextcharge.db"),
		WebDir:  envOr("NEXTCHARGE_WEB_DIR", ""),
		LogMode: envOr("NEXTCHARGE_LOG_MODE", "dev"),
	}
}

// Parse reads flags from args. Environment variables supply the defaults
// and explicit flags override them.
func Parse(name string, args []string) (Config, error) {
	cfg := defaults()
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on (env NEXTCHARGE_ADDR)")
	flagSet.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database (env NEXTCHARGE_DB)")
	flagSet.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "directory of static files to serve at / (env NEXTCHARGE_WEB_DIR)")
	flagSet.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "dev or prod (env NEXTCHARGE_LOG_MODE)")
	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
