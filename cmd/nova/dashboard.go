package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/dashboard"
	"github.com/lunarnova/nova/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "admin",
	Short:   "Start a live WebSocket dashboard",
	Long: `Start a WebSocket server broadcasting project and sync activity.

WebSocket messages include:
- project_update: a project was created, edited, archived, or deleted
- sync_state: the sync orchestrator changed state
- stats: collection statistics (total, by status, archived)

Example usage:
  nova dashboard                 # Start on the configured port
  nova dashboard --port 9000     # Start on a custom port

Connect with a WebSocket client:
  ws://localhost:8080/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		port := a.Config.Dashboard.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		logger := log.New(os.Stderr, "[dashboard] ", log.LstdFlags)

		var handler *dashboard.Handler
		server := dashboard.NewServer(&dashboard.Config{
			Port:     port,
			Logger:   logger,
			Greeting: func() []dashboard.Message { return handler.Greeting() },
		})
		handler = dashboard.NewHandler(server, a.Orch, logger)

		if err := server.Start(); err != nil {
			return err
		}

		fmt.Println(ui.Title("Lunar Nova dashboard"))
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check:       http://localhost:%d/health\n", port)
		fmt.Println(ui.Dim("\nPress Ctrl+C to stop..."))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		return server.Stop()
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	rootCmd.AddCommand(dashboardCmd)
}
