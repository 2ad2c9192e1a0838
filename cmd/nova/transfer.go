package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/transfer"
	"github.com/lunarnova/nova/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "projects",
	Short:   "Import projects from a JSON export",
	Long: `Import a JSON array of projects, produced by 'nova export'.

The whole file is validated before anything changes; a malformed file
leaves the collection untouched. The combination mode is always explicit:

  replace   discard the current collection and adopt the file
  merge     keep every current project, add file records with new ids`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := importMode(cmd)
		if err != nil {
			return err
		}

		incoming, err := transfer.ReadFile(args[0])
		if err != nil {
			return err
		}

		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		var result transfer.ImportResult
		err = a.Orch.Mutate(cmd.Context(), "", func(s *project.Store) error {
			result, err = transfer.Apply(s, incoming, mode)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.OK(fmt.Sprintf("Imported %d project(s)", result.Added)) +
			ui.Dim(fmt.Sprintf(" (%d read, %d skipped, mode %s)", result.Read, result.Skipped, result.Mode)))
		return nil
	},
}

// importMode returns the explicit --mode value, or prompts for one when
// the terminal allows it. There is no default.
func importMode(cmd *cobra.Command) (transfer.ImportMode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	if raw != "" {
		mode := transfer.ImportMode(raw)
		if !mode.Valid() {
			return "", fmt.Errorf("unknown import mode %q (use replace or merge)", raw)
		}
		return mode, nil
	}

	if !ui.Interactive() {
		return "", fmt.Errorf("import mode is required; pass --mode replace or --mode merge")
	}

	var choice string
	err := huh.NewSelect[string]().
		Title("How should the import combine with your projects?").
		Options(
			huh.NewOption("Replace: discard current projects, adopt the file", string(transfer.ModeReplace)),
			huh.NewOption("Merge: keep current projects, add new ones from the file", string(transfer.ModeMerge)),
		).
		Value(&choice).
		Run()
	if err != nil {
		return "", fmt.Errorf("import cancelled: %w", err)
	}
	return transfer.ImportMode(choice), nil
}

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "projects",
	Short:   "Export projects as JSON or Markdown",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()
			out = f
		}

		c := a.Orch.Snapshot()
		switch format {
		case "json":
			err = transfer.WriteJSON(out, c)
		case "markdown", "md":
			err = transfer.WriteMarkdown(out, c)
		default:
			return fmt.Errorf("unknown export format %q (use json or markdown)", format)
		}
		if err != nil {
			return err
		}

		if outPath != "" {
			fmt.Println(ui.OK(fmt.Sprintf("Exported %d project(s) to %s", len(c), outPath)))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringP("mode", "m", "", "Combination mode: replace or merge")

	exportCmd.Flags().StringP("format", "f", "json", "Export format: json or markdown")
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	rootCmd.AddCommand(importCmd, exportCmd)
}
