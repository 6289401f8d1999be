// Package config loads TaskFlow configuration from file, environment, and
// defaults, in that order of increasing precedence for the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds everything the process needs at startup.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path"`
	// LogFile receives structured logs, size-rotated. Empty logs to stderr.
	LogFile string `mapstructure:"log_file"`
	// DashboardPort is the analytics dashboard listen port.
	DashboardPort int `mapstructure:"dashboard_port"`
	// BcryptCost is the password hashing cost factor.
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// Load reads configuration. When cfgFile is empty the default search path is
// $XDG_CONFIG_HOME/taskflow (falling back to ~/.config/taskflow); a missing
// config file is not an error, defaults and TASKFLOW_* environment variables
// apply. Environment keys: TASKFLOW_DB_PATH, TASKFLOW_LOG_FILE,
// TASKFLOW_DASHBOARD_PORT, TASKFLOW_BCRYPT_COST.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", filepath.Join(dataDir(), "taskflow.db"))
	v.SetDefault("log_file", "")
	v.SetDefault("dashboard_port", 8080)
	v.SetDefault("bcrypt_cost", 10)

	v.SetEnvPrefix("TASKFLOW")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("taskflow")
		v.SetConfigType("yaml")
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			v.AddConfigPath(filepath.Join(dir, "taskflow"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "taskflow"))
		}
	}

	// An explicitly named file must exist and parse; the default search
	// path is allowed to come up empty.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// dataDir returns the XDG data directory for taskflow, falling back to
// ~/.local/share/taskflow.
func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "taskflow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskflow"
	}
	return filepath.Join(home, ".local", "share", "taskflow")
}
