package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/app"
	"github.com/lunarnova/nova/internal/config"
	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/ui"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "nova",
	Short: "Local-first project notebook with cloud sync",
	Long: `Lunar Nova keeps a collection of markdown project notes on this machine
and mirrors it to the cloud when a sync backend is configured.

Every command works offline. When sync is configured, each session pulls
the remote collection at startup (remote wins) and pushes the full local
snapshot after every change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror log output to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "projects", Title: "Project commands:"},
		&cobra.Group{ID: "sync", Title: "Sync commands:"},
		&cobra.Group{ID: "admin", Title: "Administration commands:"},
	)
}

// consoleNotifier surfaces orchestrator notifications on stderr so they
// never interleave with command output on stdout.
type consoleNotifier struct{}

func (consoleNotifier) Info(msg string) {
	fmt.Fprintln(os.Stderr, ui.Dim(msg))
}

func (consoleNotifier) Warn(msg string) {
	fmt.Fprintln(os.Stderr, ui.Warn("warning: "+msg))
}

// loadApp builds the application for one command invocation.
func loadApp(cmd *cobra.Command, bootstrap bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return app.New(cmd.Context(), cfg, app.Options{
		Verbose:   verbose,
		Notifier:  consoleNotifier{},
		Bootstrap: bootstrap,
	})
}

// closeApp flushes and closes, reporting problems without masking the
// command's own error.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Warn("warning: shutdown incomplete: "+err.Error()))
	}
}

// findProject resolves an id or unique id prefix against the collection.
func findProject(c project.Collection, idOrPrefix string) (*project.Project, error) {
	var match *project.Project
	for _, p := range c {
		if p.ID == idOrPrefix {
			return p, nil
		}
		if strings.HasPrefix(p.ID, idOrPrefix) {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous", idOrPrefix)
			}
			match = p
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no project matches %q", idOrPrefix)
	}
	return match, nil
}
