package transfer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lunarnova/nova/internal/project"
)

func sampleCollection(t *testing.T) project.Collection {
	t.Helper()

	a := project.New("Apollo", "# Apollo\n\nLaunch prep.")
	a.Tags = []string{"space", "q4"}
	b := project.New("Borealis", "# Borealis")
	b.Status = project.StatusArchived
	b.PreviousStatus = project.StatusOnHold
	return project.Collection{a, b}
}

func TestJSONExportImportRoundTrip(t *testing.T) {
	want := sampleCollection(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	got, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	s := project.NewStore()
	if _, err := Apply(s, got, ModeReplace); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("round-trip mismatch (-exported +reimported):\n%s", diff)
	}
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, input := range []string{
		`{"id": "x"}`,
		`"just a string"`,
		`not json at all`,
		`42`,
	} {
		if _, err := Decode([]byte(input)); err == nil {
			t.Errorf("expected rejection for %q", input)
		}
	}
}

func TestDecodeRejectsInvalidRecord(t *testing.T) {
	input := `[{"id": "ok-1", "title": "Fine", "content": "x", "status": "active"},
	           {"id": "bad-1", "title": "", "content": "x", "status": "active"}]`

	if _, err := Decode([]byte(input)); err == nil {
		t.Fatal("expected rejection for record with empty title")
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	input := `[{"id": "min-1", "title": "Minimal"}]`

	c, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c[0].Status != project.StatusPlanning {
		t.Errorf("expected default status, got %q", c[0].Status)
	}
	if c[0].CreatedAt.IsZero() || c[0].UpdatedAt.IsZero() {
		t.Error("expected timestamps defaulted")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadFileRoundTrip(t *testing.T) {
	want := sampleCollection(t)
	path := filepath.Join(t.TempDir(), "export.json")

	var buf bytes.Buffer
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("file round-trip mismatch:\n%s", diff)
	}
}

func TestApplyReplaceDiscardsExisting(t *testing.T) {
	s := project.NewStore()
	if err := s.Upsert(project.New("Old", "# Old")); err != nil {
		t.Fatal(err)
	}

	incoming := sampleCollection(t)
	result, err := Apply(s, incoming, ModeReplace)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Added != len(incoming) {
		t.Errorf("expected %d added, got %d", len(incoming), result.Added)
	}
	if diff := cmp.Diff(titlesOf(incoming), titlesOf(s.List())); diff != "" {
		t.Errorf("replace mismatch:\n%s", diff)
	}
}

func TestApplyMergeCounts(t *testing.T) {
	s := project.NewStore()
	existing := sampleCollection(t)
	for i := len(existing) - 1; i >= 0; i-- {
		if err := s.Upsert(existing[i]); err != nil {
			t.Fatal(err)
		}
	}

	// Import shares one id with the existing collection.
	overlap := existing[0].Clone()
	overlap.Title = "Renamed in import"
	fresh := project.New("Cassini", "# Cassini")
	incoming := project.Collection{overlap, fresh}

	result, err := Apply(s, incoming, ModeMerge)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// size = existing + (imported - overlapping)
	wantLen := len(existing) + len(incoming) - 1
	if s.Len() != wantLen {
		t.Errorf("expected %d projects, got %d", wantLen, s.Len())
	}
	if result.Added != 1 || result.Skipped != 1 {
		t.Errorf("expected 1 added / 1 skipped, got %d / %d", result.Added, result.Skipped)
	}

	// The existing record wins over the imported duplicate.
	got, err := s.Find(existing[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title == "Renamed in import" {
		t.Error("merge must not overwrite existing records")
	}
}

func TestApplyUnknownMode(t *testing.T) {
	s := project.NewStore()
	if _, err := Apply(s, sampleCollection(t), ImportMode("append")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestWriteMarkdownSections(t *testing.T) {
	c := sampleCollection(t)

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, c); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}
	out := buf.String()

	for _, p := range c {
		if !strings.Contains(out, "## "+p.Title) {
			t.Errorf("missing section for %q", p.Title)
		}
		if !strings.Contains(out, string(p.Status)) {
			t.Errorf("missing status for %q", p.Title)
		}
	}
	if !strings.Contains(out, "q4, space") {
		t.Error("expected sorted tag list in output")
	}
	if !strings.Contains(out, "Launch prep.") {
		t.Error("expected project content in output")
	}
}

func titlesOf(c project.Collection) []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Title
	}
	return out
}
