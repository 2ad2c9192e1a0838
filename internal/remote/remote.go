// Package remote pushes and pulls the project collection against a single
// cloud document keyed by the session identifier.
//
// The whole collection is one opaque payload: every pull and push is an
// atomic document read or overwrite, never a partial-field update. Other
// fields on the same document are preserved on push.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/lunarnova/nova/internal/project"
)

// ErrAbsent means no document exists yet for the identifier. This is a new
// user, not a failure; callers must treat it differently from an Error.
var ErrAbsent = errors.New("remote document absent")

// Document is the wire shape of the per-identifier remote document.
type Document struct {
	Projects  project.Collection `firestore:"projects"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

// Syncer is the narrow surface the orchestrator needs from the remote side.
type Syncer interface {
	// Pull fetches the collection stored under identifier.
	// Returns ErrAbsent when no document exists for this identifier.
	// A document without a projects field reads as an empty collection.
	Pull(ctx context.Context, identifier string) (project.Collection, error)

	// Push overwrites the document's project collection and refreshes the
	// server-side updated timestamp. Safe to call repeatedly: it is an
	// idempotent overwrite, not an append.
	Push(ctx context.Context, identifier string, c project.Collection) error
}
