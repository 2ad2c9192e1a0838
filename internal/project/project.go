// Package project provides the Lunar Nova project model and the in-memory
// store that owns the canonical collection.
//
// A project is a user-authored Markdown document with status and tag
// metadata. The store holds the only authoritative copy in the process;
// local persistence and the remote document are mirrors of it.
package project

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on-hold"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return []Status{StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusArchived}
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// DefaultTitle is used when a project is created without an explicit title.
const DefaultTitle = "Untitled Protocol"

// Project is the sole persisted entity.
//
// Field names on the wire match the original document shape so that
// exported JSON and the remote document stay interchangeable.
type Project struct {
	ID      string `json:"id" firestore:"id"`
	Title   string `json:"title" firestore:"title"`
	Content string `json:"content" firestore:"content"`
	Status  Status `json:"status" firestore:"status"`

	// PreviousStatus is set only while the project is archived and holds
	// the status to restore on unarchive.
	PreviousStatus Status `json:"previousStatus,omitempty" firestore:"previousStatus,omitempty"`

	Tags []string `json:"tags,omitempty" firestore:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// New creates a project with a fresh id and creation timestamps.
// Empty title and content fall back to the defaults the original app used
// for a brand-new document.
func New(title, content string) *Project {
	if title == "" {
		title = DefaultTitle
	}
	if content == "" {
		content = fmt.Sprintf("# %s\n\nStart typing...", title)
	}
	now := time.Now().UTC()
	return &Project{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Status:    StatusPlanning,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the invariants a project must satisfy before it may
// enter the store.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if p.Status != StatusArchived && p.PreviousStatus != "" {
		return fmt.Errorf("previousStatus is only valid while archived")
	}
	return nil
}

// SetDefaults fills optional fields so records from older exports or
// hand-edited import files behave consistently.
func (p *Project) SetDefaults() {
	if p.Status == "" {
		p.Status = StatusPlanning
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
}

// Touch refreshes UpdatedAt. The timestamp never moves backwards, even if
// the wall clock does.
func (p *Project) Touch() {
	now := time.Now().UTC()
	if now.Before(p.UpdatedAt) {
		now = p.UpdatedAt
	}
	p.UpdatedAt = now
}

// Archive moves the project into the archived status, remembering the
// status to restore on unarchive. Archiving an archived project is a no-op.
func (p *Project) Archive() {
	if p.Status == StatusArchived {
		return
	}
	p.PreviousStatus = p.Status
	p.Status = StatusArchived
	p.Touch()
}

// Unarchive restores the status captured at archive time and clears
// PreviousStatus. Projects archived without a recorded prior status come
// back as active.
func (p *Project) Unarchive() {
	if p.Status != StatusArchived {
		return
	}
	restored := p.PreviousStatus
	if restored == "" || !restored.Valid() {
		restored = StatusActive
	}
	p.Status = restored
	p.PreviousStatus = ""
	p.Touch()
}

// Archived reports whether the project is currently archived.
func (p *Project) Archived() bool {
	return p.Status == StatusArchived
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	cp := *p
	if p.Tags != nil {
		cp.Tags = append([]string(nil), p.Tags...)
	}
	return &cp
}

// HasTag reports whether the project carries the given tag.
func (p *Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
