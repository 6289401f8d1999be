package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/francescaartes/task-management-system/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the real-time analytics dashboard server",
	Long: `Start a WebSocket server that streams analytics snapshots for a user.

Connected clients receive an analytics message every refresh interval and
whenever a mutation is published through the handler.

Example usage:
  taskflow dashboard --user 1              # default port from config
  taskflow dashboard --user 1 --port 9000

Connect with a WebSocket client:
  ws://localhost:<port>/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.DashboardPort = port
		}
		raw, _ := cmd.Flags().GetDuration("refresh")
		interval, err := refreshInterval(raw)
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

		logger := log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
		server := dashboard.NewServer(&dashboard.Config{
			Port:   cfg.DashboardPort,
			Logger: logger,
		})

		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		handler := dashboard.NewHandler(server, st, logger)

		fmt.Printf("Dashboard server listening on %s\n", server.GetAddr())
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", server.GetAddr())
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		handler.PublishAnalytics(ctx, userID)
		for {
			select {
			case <-ticker.C:
				handler.PublishAnalytics(ctx, userID)
			case <-ctx.Done():
				fmt.Println("\nShutting down dashboard server...")
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
					os.Exit(1)
				}
				fmt.Println("Dashboard server stopped")
				return
			}
		}
	},
}

// refreshInterval validates the --refresh value; the ticker requires a
// positive duration.
func refreshInterval(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("refresh interval must be positive, got %s", d)
	}
	return d, nil
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides config)")
	dashboardCmd.Flags().Duration("refresh", 30*time.Second, "analytics refresh interval")

	rootCmd.AddCommand(dashboardCmd)
}
