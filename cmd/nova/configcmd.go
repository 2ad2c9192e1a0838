package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/config"
	"github.com/lunarnova/nova/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "admin",
	Short:   "Inspect and initialize configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Default().ConfigPath()
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Println(ui.OK("Wrote " + path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Println(ui.Title("Configuration"))
		fmt.Println(ui.Dim("config file:      ") + cfg.ConfigPath())
		fmt.Println(ui.Dim("data_dir:         ") + cfg.DataDir)
		if cfg.CredentialsFile != "" {
			fmt.Println(ui.Dim("credentials_file: ") + cfg.CredentialsFile)
		} else {
			fmt.Println(ui.Dim("credentials_file: ") + ui.Warn("unset (sync off)"))
		}
		fmt.Println(ui.Dim("sync.enabled:     ") + fmt.Sprint(cfg.Sync.Enabled))
		fmt.Println(ui.Dim("sync.timeout:     ") + cfg.Sync.Timeout.String())
		fmt.Println(ui.Dim("dashboard.port:   ") + fmt.Sprint(cfg.Dashboard.Port))
		fmt.Println(ui.Dim("log file:         ") + cfg.LogPath())
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:     "theme [name]",
	GroupID: "admin",
	Short:   "Show or set the terminal theme",
	Long: "Show the current theme, or switch to one of: " +
		strings.Join(ui.Themes(), ", ") + ".",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if len(args) == 0 {
			current, err := a.DB.Theme(cmd.Context())
			if err != nil {
				return err
			}
			if current == "" {
				current = ui.ThemeAurora
			}
			fmt.Println(ui.Accent(current))
			return nil
		}

		name := args[0]
		if !ui.ValidTheme(name) {
			return fmt.Errorf("unknown theme %q (use %s)", name, strings.Join(ui.Themes(), ", "))
		}
		if err := a.DB.SetTheme(cmd.Context(), name); err != nil {
			return err
		}
		ui.Apply(name)
		fmt.Println(ui.OK("Theme set to ") + ui.Accent(name))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd, themeCmd)
}
