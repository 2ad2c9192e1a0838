// Package ui holds terminal rendering helpers for the nova CLI.
package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/lunarnova/nova/internal/project"
)

// Theme names accepted by `nova theme`.
const (
	ThemeAurora = "aurora" // default
	ThemeLight  = "light"
	ThemeMono   = "mono"
)

// Themes lists the accepted theme names.
func Themes() []string {
	return []string{ThemeAurora, ThemeLight, ThemeMono}
}

// ValidTheme reports whether name is a known theme.
func ValidTheme(name string) bool {
	switch name {
	case ThemeAurora, ThemeLight, ThemeMono:
		return true
	}
	return false
}

var (
	titleStyle  lipgloss.Style
	accentStyle lipgloss.Style
	dimStyle    lipgloss.Style
	warnStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	okStyle     lipgloss.Style

	statusColors map[project.Status]lipgloss.Color
)

func init() {
	Apply(ThemeAurora)
}

// Apply switches the package styles to the named theme. Unknown names
// fall back to the default theme; terminals without color support always
// get the mono styles.
func Apply(theme string) {
	if !ColorEnabled() {
		theme = ThemeMono
	}
	switch theme {
	case ThemeLight:
		titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("20"))
		accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("26"))
		dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
		warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
		errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("124"))
		okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
		statusColors = map[project.Status]lipgloss.Color{
			project.StatusPlanning:  lipgloss.Color("26"),
			project.StatusActive:    lipgloss.Color("28"),
			project.StatusOnHold:    lipgloss.Color("130"),
			project.StatusCompleted: lipgloss.Color("20"),
			project.StatusArchived:  lipgloss.Color("244"),
		}
	case ThemeMono:
		titleStyle = lipgloss.NewStyle().Bold(true)
		accentStyle = lipgloss.NewStyle()
		dimStyle = lipgloss.NewStyle().Faint(true)
		warnStyle = lipgloss.NewStyle()
		errorStyle = lipgloss.NewStyle().Bold(true)
		okStyle = lipgloss.NewStyle()
		statusColors = map[project.Status]lipgloss.Color{}
	default:
		titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("183"))
		accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
		dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		statusColors = map[project.Status]lipgloss.Color{
			project.StatusPlanning:  lipgloss.Color("39"),
			project.StatusActive:    lipgloss.Color("42"),
			project.StatusOnHold:    lipgloss.Color("214"),
			project.StatusCompleted: lipgloss.Color("141"),
			project.StatusArchived:  lipgloss.Color("241"),
		}
	}
}

// Interactive reports whether stdin and stdout are both terminals, which
// gates confirmation prompts and pickers.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorEnabled reports whether the terminal supports color output at all.
func ColorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Title renders a heading line.
func Title(s string) string { return titleStyle.Render(s) }

// Accent renders an emphasized value.
func Accent(s string) string { return accentStyle.Render(s) }

// Dim renders secondary text.
func Dim(s string) string { return dimStyle.Render(s) }

// Warn renders a warning line.
func Warn(s string) string { return warnStyle.Render(s) }

// Error renders an error line.
func Error(s string) string { return errorStyle.Render(s) }

// OK renders a success line.
func OK(s string) string { return okStyle.Render(s) }

// RenderStatus renders a project status in its theme color.
func RenderStatus(s project.Status) string {
	color, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}

// ProjectLine renders a single list row: short id, status, title, tags.
func ProjectLine(p *project.Project) string {
	id := p.ID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("%s  %-11s %s", Dim(id), RenderStatus(p.Status), p.Title)
	if len(p.Tags) > 0 {
		tags := append([]string(nil), p.Tags...)
		sort.Strings(tags)
		line += "  " + Dim("#"+strings.Join(tags, " #"))
	}
	return line
}
