package project

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	p := New("", "")

	if p.ID == "" {
		t.Error("expected generated id")
	}
	if p.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", p.Title)
	}
	if !strings.HasPrefix(p.Content, "# "+DefaultTitle) {
		t.Errorf("expected default content to open with title heading, got %q", p.Content)
	}
	if p.Status != StatusPlanning {
		t.Errorf("expected planning status, got %q", p.Status)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("new project should validate: %v", err)
	}
}

func TestNewUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p := New("Title", "body")
		if seen[p.ID] {
			t.Fatalf("duplicate id generated: %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Project)
		wantErr bool
	}{
		{"valid", func(p *Project) {}, false},
		{"empty title", func(p *Project) { p.Title = "" }, true},
		{"empty id", func(p *Project) { p.ID = "" }, true},
		{"bad status", func(p *Project) { p.Status = "paused" }, true},
		{"previousStatus without archive", func(p *Project) { p.PreviousStatus = StatusActive }, true},
		{"archived with previousStatus", func(p *Project) {
			p.Status = StatusArchived
			p.PreviousStatus = StatusActive
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("Sample", "body")
			tt.mutate(p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArchiveUnarchiveRestoresStatus(t *testing.T) {
	p := New("Sample", "body")
	p.Status = StatusOnHold

	p.Archive()
	if p.Status != StatusArchived {
		t.Fatalf("expected archived, got %q", p.Status)
	}
	if p.PreviousStatus != StatusOnHold {
		t.Fatalf("expected previousStatus on-hold, got %q", p.PreviousStatus)
	}

	p.Unarchive()
	if p.Status != StatusOnHold {
		t.Errorf("expected restored status on-hold, got %q", p.Status)
	}
	if p.PreviousStatus != "" {
		t.Errorf("expected previousStatus cleared, got %q", p.PreviousStatus)
	}
}

func TestArchiveIdempotent(t *testing.T) {
	p := New("Sample", "body")
	p.Status = StatusActive

	p.Archive()
	p.Archive()
	if p.PreviousStatus != StatusActive {
		t.Errorf("double archive must not overwrite previousStatus, got %q", p.PreviousStatus)
	}
}

func TestUnarchiveWithoutPrior(t *testing.T) {
	p := New("Sample", "body")
	p.Status = StatusArchived
	p.PreviousStatus = ""

	p.Unarchive()
	if p.Status != StatusActive {
		t.Errorf("expected fallback to active, got %q", p.Status)
	}
}

func TestUnarchiveNonArchivedNoop(t *testing.T) {
	p := New("Sample", "body")
	p.Status = StatusCompleted

	p.Unarchive()
	if p.Status != StatusCompleted {
		t.Errorf("unarchive of non-archived project must be a no-op, got %q", p.Status)
	}
}

func TestTouchMonotonic(t *testing.T) {
	p := New("Sample", "body")
	p.UpdatedAt = time.Now().Add(time.Hour) // simulate clock skew

	before := p.UpdatedAt
	p.Touch()
	if p.UpdatedAt.Before(before) {
		t.Errorf("UpdatedAt moved backwards: %v -> %v", before, p.UpdatedAt)
	}
}

func TestCloneIndependence(t *testing.T) {
	p := New("Sample", "body")
	p.Tags = []string{"a", "b"}

	cp := p.Clone()
	cp.Tags[0] = "mutated"
	cp.Title = "changed"

	if p.Tags[0] != "a" {
		t.Error("clone shares tag slice with original")
	}
	if p.Title != "Sample" {
		t.Error("clone shares fields with original")
	}
}
