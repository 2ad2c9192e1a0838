// Package transfer implements one-shot import and export of the project
// collection.
//
// Import offers two explicit modes: replace discards the existing
// collection, merge appends only records whose id is not already present.
// The mode is always a caller decision, never a default. Export produces
// either lossless JSON (the same shape import consumes) or a lossy,
// human-readable Markdown rendering.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lunarnova/nova/internal/project"
)

// ImportMode selects how an imported collection combines with the
// existing one.
type ImportMode string

const (
	// ModeReplace discards the existing collection wholesale.
	ModeReplace ImportMode = "replace"
	// ModeMerge appends only records whose id is not already present.
	ModeMerge ImportMode = "merge"
)

// Valid reports whether m is a recognized import mode.
func (m ImportMode) Valid() bool {
	return m == ModeReplace || m == ModeMerge
}

// ImportResult reports what an import pass did.
type ImportResult struct {
	Mode    ImportMode
	Read    int // records in the file
	Added   int // records added to the store
	Skipped int // records skipped (merge mode, id already present)
}

// ReadFile reads and fully validates an import file before any mutation
// can happen. The file must contain a JSON array of project records; a
// malformed file or an invalid record rejects the whole import and leaves
// the existing collection untouched.
func ReadFile(path string) (project.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return Decode(data)
}

// Decode parses a JSON array of project records and validates every one.
func Decode(data []byte) (project.Collection, error) {
	var c project.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("import file is not a JSON array of projects: %w", err)
	}

	for i, p := range c {
		if p == nil {
			return nil, fmt.Errorf("record %d is null", i)
		}
		p.SetDefaults()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, p.ID, err)
		}
	}
	return c, nil
}

// Apply combines an already validated collection with the store according
// to mode.
func Apply(s *project.Store, c project.Collection, mode ImportMode) (ImportResult, error) {
	result := ImportResult{Mode: mode, Read: len(c)}

	switch mode {
	case ModeReplace:
		s.Replace(c)
		result.Added = s.Len()
		result.Skipped = result.Read - result.Added
	case ModeMerge:
		result.Added = s.Merge(c)
		result.Skipped = result.Read - result.Added
	default:
		return result, fmt.Errorf("unknown import mode %q", mode)
	}
	return result, nil
}

// WriteJSON renders the collection as indented JSON, the exact shape
// ReadFile consumes: export-then-import in replace mode reproduces the
// collection.
func WriteJSON(w io.Writer, c project.Collection) error {
	if c == nil {
		c = project.Collection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	return nil
}

// WriteMarkdown renders a human-readable document, one section per
// project. This rendering is lossy and exists for reading, not round-trips.
func WriteMarkdown(w io.Writer, c project.Collection) error {
	var b strings.Builder

	b.WriteString("# Lunar Nova Projects\n\n")
	b.WriteString(fmt.Sprintf("Exported %s, %d project(s)\n", time.Now().UTC().Format(time.RFC3339), len(c)))

	for _, p := range c {
		b.WriteString("\n---\n\n")
		b.WriteString(fmt.Sprintf("## %s\n\n", p.Title))
		b.WriteString(fmt.Sprintf("- Status: %s\n", p.Status))
		if len(p.Tags) > 0 {
			tags := append([]string(nil), p.Tags...)
			sort.Strings(tags)
			b.WriteString(fmt.Sprintf("- Tags: %s\n", strings.Join(tags, ", ")))
		}
		b.WriteString(fmt.Sprintf("- Created: %s\n", p.CreatedAt.UTC().Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("- Updated: %s\n", p.UpdatedAt.UTC().Format("2006-01-02")))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(p.Content, "\n"))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown export: %w", err)
	}
	return nil
}
