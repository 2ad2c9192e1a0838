package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/syncer"
	"github.com/lunarnova/nova/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Pull the remote collection and reconcile",
	Long: `Pull the remote collection for this session's identifier and reconcile.

A non-empty remote replaces local state wholesale; an empty remote adopts
the local collection and pushes it. When the remote is unreachable the
local collection keeps serving.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Skip the implicit startup pull; this command pulls explicitly.
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		outcome, err := a.Orch.RequestSync(cmd.Context())
		if err != nil {
			return err
		}

		st := a.Orch.Status()
		switch outcome {
		case syncer.OutcomeRemoteWins:
			fmt.Println(ui.OK(fmt.Sprintf("Synced: adopted %d project(s) from the cloud", st.Projects)))
		case syncer.OutcomeAdoptedLocal:
			fmt.Println(ui.OK(fmt.Sprintf("Synced: cloud was empty, pushing %d local project(s)", st.Projects)))
		case syncer.OutcomeNoData:
			fmt.Println(ui.Dim("Nothing to sync yet."))
		case syncer.OutcomeOffline:
			fmt.Println(ui.Warn("Cloud unreachable, serving local data."))
			if st.LastPullErr != "" {
				fmt.Println(ui.Dim("  " + st.LastPullErr))
			}
		case syncer.OutcomeDisabled:
			fmt.Println(ui.Dim("Sync is disabled for this session."))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync state for this session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		st := a.Orch.Status()

		fmt.Println(ui.Title("Sync status"))
		fmt.Println(ui.Dim("state:     ") + string(st.State))
		fmt.Println(ui.Dim("projects:  ") + fmt.Sprint(st.Projects))
		if st.SyncEnabled {
			fmt.Println(ui.Dim("identity:  ") + st.Identifier)
		} else {
			fmt.Println(ui.Dim("identity:  ") + ui.Warn("none (local-only)"))
		}
		if !st.LastPullAt.IsZero() {
			fmt.Println(ui.Dim("last pull: ") + st.LastPullAt.Local().Format("2006-01-02 15:04:05"))
		}
		if st.LastPullErr != "" {
			fmt.Println(ui.Dim("pull err:  ") + ui.Error(st.LastPullErr))
		}
		if !st.LastPushAt.IsZero() {
			fmt.Println(ui.Dim("last push: ") + st.LastPushAt.Local().Format("2006-01-02 15:04:05"))
		}
		if st.LastPushErr != "" {
			fmt.Println(ui.Dim("push err:  ") + ui.Error(st.LastPushErr))
		}
		return nil
	},
}

var idCmd = &cobra.Command{
	Use:     "id",
	GroupID: "sync",
	Short:   "Manage the sync identifier",
	Long: `Manage the identifier that keys this device's cloud document.

By default an anonymous identifier is issued once and reused. Setting a
manual identifier lets several devices share one document; it takes
effect on the next command.`,
}

var idShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current sync identifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		id, ok := a.Resolver.CurrentIdentifier()
		if !ok {
			fmt.Println(ui.Dim("No sync identifier; this session is local-only."))
			return nil
		}
		kind := "anonymous"
		if a.Resolver.Manual() {
			kind = "manual"
		}
		fmt.Println(ui.Accent(id) + ui.Dim(" ("+kind+")"))
		return nil
	},
}

var idSetCmd = &cobra.Command{
	Use:   "set <identifier>",
	Short: "Use a manual sync identifier from the next command on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if err := a.Resolver.SetManualIdentifier(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.OK("Sync identifier set. ") + ui.Dim("It takes effect on the next command."))
		return nil
	},
}

var idClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the manual identifier and go back to anonymous",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, false)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if err := a.Resolver.ClearManualIdentifier(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(ui.OK("Manual identifier cleared."))
		return nil
	},
}

func init() {
	idCmd.AddCommand(idShowCmd, idSetCmd, idClearCmd)
	rootCmd.AddCommand(syncCmd, statusCmd, idCmd)
}
