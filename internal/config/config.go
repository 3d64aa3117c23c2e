package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseDriver string
	DatabaseDSN    string
	DatabasePath   string
	DatabaseDir    string

	StatementTimeout time.Duration
	AllowDangerous   bool

	LogLevel  string
	LogFormat string

	ServerHost     string
	ServerPort     string
	APIKey         string
	FrontendURL    string
	AllowedOrigins []string
}

// GetConfig returns the application configuration from the config file,
// .env files and SCHEMARUNNER_* environment variables.
func GetConfig() (*Config, error) {
	v := viper.New()
	return Load(v)
}

// Load reads configuration through v. Callers may bind flags to v before
// calling Load.
func Load(v *viper.Viper) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	// .env files are optional; .env.local wins over .env
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	v.SetConfigName(".schemarunner")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)

	v.SetEnvPrefix("SCHEMARUNNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaultDir := filepath.Join(home, ".schemarunner")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", filepath.Join(defaultDir, "schemarunner.db"))
	v.SetDefault("migration.statement_timeout", time.Duration(0))
	v.SetDefault("migration.allow_dangerous", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("frontend_url", "http://localhost:3000")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	dbPath, err := homedir.Expand(v.GetString("database.path"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		DatabaseDriver:   v.GetString("database.driver"),
		DatabaseDSN:      v.GetString("database.dsn"),
		DatabasePath:     dbPath,
		DatabaseDir:      filepath.Dir(dbPath),
		StatementTimeout: v.GetDuration("migration.statement_timeout"),
		AllowDangerous:   v.GetBool("migration.allow_dangerous"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
		ServerHost:       v.GetString("server.host"),
		ServerPort:       v.GetString("server.port"),
		APIKey:           v.GetString("server.api_key"),
		FrontendURL:      v.GetString("frontend_url"),
		AllowedOrigins:   splitOrigins(v.GetStringSlice("server.allowed_origins")),
	}

	return config, nil
}

// UsesFile reports whether the configured driver stores its data in
// DatabasePath rather than behind a DSN.
func (c *Config) UsesFile() bool {
	if c.DatabaseDSN != "" {
		return false
	}
	switch c.DatabaseDriver {
	case "sqlite3", "sqlite", "duckdb":
		return true
	}
	return false
}

// EnsureDatabaseDir creates the database directory if it doesn't exist
func (c *Config) EnsureDatabaseDir() error {
	return os.MkdirAll(c.DatabaseDir, 0755)
}

// DatabaseExists checks if the database file exists
func (c *Config) DatabaseExists() bool {
	_, err := os.Stat(c.DatabasePath)
	return !os.IsNotExist(err)
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
