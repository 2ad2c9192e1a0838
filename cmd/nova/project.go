package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/ui"
)

var newCmd = &cobra.Command{
	Use:     "new <title>",
	GroupID: "projects",
	Short:   "Create a project",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		title := strings.Join(args, " ")
		content, err := contentArg(cmd)
		if err != nil {
			return err
		}
		tags, _ := cmd.Flags().GetStringSlice("tag")

		p := project.New(title, content)
		p.Tags = tags
		if cmd.Flags().Changed("status") {
			status, _ := cmd.Flags().GetString("status")
			p.Status = project.Status(status)
		}

		err = a.Orch.Mutate(cmd.Context(), p.ID, func(s *project.Store) error {
			return s.Upsert(p)
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.OK("Created ") + ui.Accent(p.Title) + ui.Dim(" ("+p.ID+")"))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "projects",
	Short:   "List projects, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		statusFilter, _ := cmd.Flags().GetString("status")
		tagFilter, _ := cmd.Flags().GetString("tag")
		all, _ := cmd.Flags().GetBool("all")

		if statusFilter != "" && !project.Status(statusFilter).Valid() {
			return fmt.Errorf("unknown status %q", statusFilter)
		}

		shown := 0
		for _, p := range a.Orch.Snapshot() {
			if p.Archived() && !all && statusFilter != string(project.StatusArchived) {
				continue
			}
			if statusFilter != "" && string(p.Status) != statusFilter {
				continue
			}
			if tagFilter != "" && !p.HasTag(tagFilter) {
				continue
			}
			fmt.Println(ui.ProjectLine(p))
			shown++
		}

		if shown == 0 {
			fmt.Println(ui.Dim("No projects. Create one with 'nova new <title>'."))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	GroupID: "projects",
	Short:   "Show one project in full",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		p, err := findProject(a.Orch.Snapshot(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(ui.Title(p.Title))
		fmt.Println(ui.Dim("id:      ") + p.ID)
		fmt.Println(ui.Dim("status:  ") + ui.RenderStatus(p.Status))
		if len(p.Tags) > 0 {
			fmt.Println(ui.Dim("tags:    ") + strings.Join(p.Tags, ", "))
		}
		fmt.Println(ui.Dim("created: ") + p.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Println(ui.Dim("updated: ") + p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Println()
		fmt.Println(p.Content)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	GroupID: "projects",
	Short:   "Edit a project's title, content, status, or tags",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		p, err := findProject(a.Orch.Snapshot(), args[0])
		if err != nil {
			return err
		}

		flagsUsed := cmd.Flags().Changed("title") || cmd.Flags().Changed("content") ||
			cmd.Flags().Changed("file") || cmd.Flags().Changed("status") ||
			cmd.Flags().Changed("tag")

		if !flagsUsed {
			if !ui.Interactive() {
				return fmt.Errorf("nothing to change; pass --title, --content, --file, --status, or --tag")
			}
			if err := editForm(p); err != nil {
				return err
			}
		} else {
			if cmd.Flags().Changed("title") {
				p.Title, _ = cmd.Flags().GetString("title")
			}
			if cmd.Flags().Changed("content") || cmd.Flags().Changed("file") {
				content, err := contentArg(cmd)
				if err != nil {
					return err
				}
				p.Content = content
			}
			if cmd.Flags().Changed("status") {
				status, _ := cmd.Flags().GetString("status")
				p.Status = project.Status(status)
			}
			if cmd.Flags().Changed("tag") {
				p.Tags, _ = cmd.Flags().GetStringSlice("tag")
			}
		}

		err = a.Orch.Mutate(cmd.Context(), p.ID, func(s *project.Store) error {
			return s.Upsert(p)
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.OK("Updated ") + ui.Accent(p.Title))
		return nil
	},
}

// editForm collects changes interactively.
func editForm(p *project.Project) error {
	status := string(p.Status)

	options := make([]huh.Option[string], 0, len(project.Statuses()))
	for _, s := range project.Statuses() {
		options = append(options, huh.NewOption(string(s), string(s)))
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(&p.Title),
		huh.NewText().Title("Content").Value(&p.Content),
		huh.NewSelect[string]().Title("Status").Options(options...).Value(&status),
	))
	if err := form.Run(); err != nil {
		return fmt.Errorf("edit cancelled: %w", err)
	}
	p.Status = project.Status(status)
	return nil
}

var archiveCmd = &cobra.Command{
	Use:     "archive <id>",
	GroupID: "projects",
	Short:   "Archive a project, remembering its current status",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(cmd, args[0], "Archived ", func(p *project.Project) error {
			p.Archive()
			return nil
		})
	},
}

var unarchiveCmd = &cobra.Command{
	Use:     "unarchive <id>",
	GroupID: "projects",
	Short:   "Restore an archived project to its previous status",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(cmd, args[0], "Restored ", func(p *project.Project) error {
			p.Unarchive()
			return nil
		})
	},
}

// withProject loads the app, applies fn to one project, and persists it.
func withProject(cmd *cobra.Command, idOrPrefix, verb string, fn func(*project.Project) error) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	p, err := findProject(a.Orch.Snapshot(), idOrPrefix)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}

	err = a.Orch.Mutate(cmd.Context(), p.ID, func(s *project.Store) error {
		return s.Upsert(p)
	})
	if err != nil {
		return err
	}

	fmt.Println(ui.OK(verb) + ui.Accent(p.Title))
	return nil
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	GroupID: "projects",
	Short:   "Delete a project permanently",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		p, err := findProject(a.Orch.Snapshot(), args[0])
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			if !ui.Interactive() {
				return fmt.Errorf("refusing to delete without confirmation; pass --force")
			}
			var confirmed bool
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q permanently?", p.Title)).
				Description("This removes the project locally and from the remote on the next push.").
				Value(&confirmed).
				Run()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println(ui.Dim("Cancelled."))
				return nil
			}
		}

		err = a.Orch.Mutate(cmd.Context(), p.ID, func(s *project.Store) error {
			return s.Remove(p.ID)
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.OK("Deleted ") + ui.Accent(p.Title))
		return nil
	},
}

// contentArg returns --content, or the contents of --file when given.
func contentArg(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("file") {
		path, _ := cmd.Flags().GetString("file")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read content file: %w", err)
		}
		return string(data), nil
	}
	content, _ := cmd.Flags().GetString("content")
	return content, nil
}

func init() {
	newCmd.Flags().StringP("content", "c", "", "Initial markdown content")
	newCmd.Flags().String("file", "", "Read initial content from a file")
	newCmd.Flags().StringP("status", "s", "", "Initial status")
	newCmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable)")

	listCmd.Flags().StringP("status", "s", "", "Only show projects with this status")
	listCmd.Flags().StringP("tag", "t", "", "Only show projects with this tag")
	listCmd.Flags().BoolP("all", "a", false, "Include archived projects")

	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("content", "c", "", "New markdown content")
	editCmd.Flags().String("file", "", "Read new content from a file")
	editCmd.Flags().StringP("status", "s", "", "New status")
	editCmd.Flags().StringSliceP("tag", "t", nil, "Replace tags (repeatable)")

	deleteCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(newCmd, listCmd, showCmd, editCmd, archiveCmd, unarchiveCmd, deleteCmd)
}
