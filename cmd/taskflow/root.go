package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/francescaartes/task-management-system/internal/auth"
	"github.com/francescaartes/task-management-system/internal/config"
	"github.com/francescaartes/task-management-system/internal/store"
)

var (
	cfgFile string
	dbPath  string
	userID  int64
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Personal task tracker",
	Long: `TaskFlow tracks personal tasks with categories, statuses, deadlines,
and a shared tag vocabulary, and computes per-user dashboard analytics.

Task commands operate on the user given with --user; obtain the id with
'taskflow login'. Session handling is up to the caller, the store performs
no authentication of its own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/taskflow/taskflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides config)")
	rootCmd.PersistentFlags().Int64VarP(&userID, "user", "u", 0, "user id to operate as")
}

// loadConfig resolves configuration and applies the --db override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// openStore opens the database per config and ensures the schema exists.
// Schema creation is idempotent, so every command can do this at startup.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath, auth.NewBcryptHasher(cfg.BcryptCost))
	if err != nil {
		return nil, err
	}
	if err := st.InitSchema(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// setupLogger routes structured logs to the configured rotating file, or
// stderr when no file is set.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}, nil))
}

// requireUser enforces the --user flag on task-scoped commands.
func requireUser() error {
	if userID == 0 {
		return fmt.Errorf("--user is required (run 'taskflow login' to obtain your id)")
	}
	return nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema",
	Long: `Create the database file and schema if they don't exist.

Safe to run repeatedly, and safe to run concurrently from multiple
processes pointed at the same database.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		fmt.Printf("Database ready at %s\n", cfg.DBPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
