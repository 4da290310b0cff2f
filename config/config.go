package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvFileEnvVar     = "MENUADMIN_ENV_FILE"
	SupabaseURLEnvVar = "SUPABASE_URL"
	SupabaseKeyEnvVar = "SUPABASE_API_KEY" //nolint:gosec
	MenuDirEnvVar     = "MENU_DIR"
	BackendEnvVar     = "DB_BACKEND"
	DatabaseURLEnvVar = "DATABASE_URL"

	DefaultEnvFile    = ".env"
	DefaultSQLitePath = "menuadmin.db"
)

const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var ErrMissingCredentials = errors.New("missing Supabase credentials, please check your .env file")

type Config struct {
	SupabaseURL string
	SupabaseKey string
	MenuDir     string
	Backend     string
	DatabaseURL string
}

// EnvFile returns the dotenv file to preload, $MENUADMIN_ENV_FILE or ".env".
func EnvFile() string {
	if p := os.Getenv(EnvFileEnvVar); p != "" {
		return p
	}
	return DefaultEnvFile
}

// Load reads envFile (dotenv syntax) if it exists and overlays the process
// environment, which always wins.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(BackendEnvVar, BackendSupabase)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", envFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		SupabaseURL: strings.TrimSpace(v.GetString(SupabaseURLEnvVar)),
		SupabaseKey: strings.TrimSpace(v.GetString(SupabaseKeyEnvVar)),
		MenuDir:     strings.TrimSpace(v.GetString(MenuDirEnvVar)),
		Backend:     strings.ToLower(strings.TrimSpace(v.GetString(BackendEnvVar))),
		DatabaseURL: strings.TrimSpace(v.GetString(DatabaseURLEnvVar)),
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSupabase
	}
	if cfg.Backend == BackendSQLite && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultSQLitePath
	}
	return cfg, nil
}

// ValidateBackend checks the settings the selected backend needs.
func (c *Config) ValidateBackend() error {
	switch c.Backend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("%w (%s, %s)", ErrMissingCredentials, SupabaseURLEnvVar, SupabaseKeyEnvVar)
		}
	case BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("environment variable %s is not set", DatabaseURLEnvVar)
		}
	default:
		return fmt.Errorf("unsupported %s %q", BackendEnvVar, c.Backend)
	}
	return nil
}

// ValidateImporter additionally requires the menu directory.
func (c *Config) ValidateImporter() error {
	if err := c.ValidateBackend(); err != nil {
		return err
	}
	if c.MenuDir == "" {
		return fmt.Errorf("environment variable %s is not set", MenuDirEnvVar)
	}
	return nil
}
