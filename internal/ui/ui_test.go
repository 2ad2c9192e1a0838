package ui

import (
	"strings"
	"testing"

	"github.com/lunarnova/nova/internal/project"
)

func TestValidTheme(t *testing.T) {
	for _, name := range Themes() {
		if !ValidTheme(name) {
			t.Errorf("theme %q should be valid", name)
		}
	}
	if ValidTheme("neon") {
		t.Error("unknown theme accepted")
	}
}

func TestApplyUnknownFallsBack(t *testing.T) {
	// Must not panic, and rendering must still work afterwards.
	Apply("definitely-not-a-theme")
	if got := OK("done"); !strings.Contains(got, "done") {
		t.Errorf("rendering broken after fallback: %q", got)
	}
	Apply(ThemeAurora)
}

func TestProjectLine(t *testing.T) {
	p := project.New("Visible Title", "# Body")
	p.Tags = []string{"beta", "alpha"}

	line := ProjectLine(p)
	if !strings.Contains(line, "Visible Title") {
		t.Errorf("title missing from %q", line)
	}
	if !strings.Contains(line, string(p.Status)) {
		t.Errorf("status missing from %q", line)
	}
	// Tags render sorted.
	if !strings.Contains(line, "#alpha #beta") {
		t.Errorf("sorted tags missing from %q", line)
	}
	// The id is shortened for display.
	if strings.Contains(line, p.ID) {
		t.Errorf("full id should not appear in %q", line)
	}
}
