// Package identity establishes the session identifier that keys the remote
// document.
//
// Resolution order: a manually supplied identifier stored on-device wins and
// is used with no verification round-trip; otherwise a previously issued
// anonymous identifier is reused; otherwise a fresh anonymous credential is
// requested from the identity provider and remembered for later sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/lunarnova/nova/internal/local"
)

// ErrIssuanceDisabled means anonymous identity issuance is administratively
// disabled for the backend project. This is a configuration problem, not a
// transient failure: sync stays off for the whole session and the user is
// told why.
var ErrIssuanceDisabled = errors.New("anonymous identity issuance is disabled")

// Provider issues anonymous identity credentials.
type Provider interface {
	// IssueAnonymous requests a fresh anonymous identity and returns its
	// opaque identifier. Implementations must wrap configuration problems
	// in ErrIssuanceDisabled; any other error is treated as transient.
	IssueAnonymous(ctx context.Context) (string, error)
}

// Resolver resolves and holds the session identifier.
type Resolver struct {
	db       *local.DB
	provider Provider
	logger   *log.Logger

	identifier string
	manual     bool
}

// NewResolver creates a resolver over the local store and an identity
// provider. A nil provider disables anonymous issuance (local-only mode
// unless a manual identifier is stored).
func NewResolver(db *local.DB, provider Provider, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(os.Stderr, "[identity] ", log.LstdFlags)
	}
	return &Resolver{db: db, provider: provider, logger: logger}
}

// Resolve establishes the session identifier. It is called once at startup.
//
// Returns ErrIssuanceDisabled when anonymous issuance is administratively
// off, or a transient error when the identity service is unreachable. In
// both cases the session continues local-only with no identifier.
func (r *Resolver) Resolve(ctx context.Context) error {
	manual, ok, err := r.db.ManualIdentifier(ctx)
	if err != nil {
		return fmt.Errorf("failed to read manual identifier: %w", err)
	}
	if ok && manual != "" {
		r.identifier = manual
		r.manual = true
		r.logger.Printf("Using manual sync identifier %s", manual)
		return nil
	}

	anon, ok, err := r.db.AnonIdentifier(ctx)
	if err != nil {
		return fmt.Errorf("failed to read anonymous identifier: %w", err)
	}
	if ok && anon != "" {
		r.identifier = anon
		r.logger.Printf("Reusing anonymous identifier %s", anon)
		return nil
	}

	if r.provider == nil {
		return nil
	}

	issued, err := r.provider.IssueAnonymous(ctx)
	if err != nil {
		if errors.Is(err, ErrIssuanceDisabled) {
			return err
		}
		return fmt.Errorf("failed to obtain anonymous identity: %w", err)
	}

	if err := r.db.SetAnonIdentifier(ctx, issued); err != nil {
		// The identity still works for this session; next session will
		// simply issue another one.
		r.logger.Printf("Warning: failed to remember anonymous identifier: %v", err)
	}

	r.identifier = issued
	r.logger.Printf("Issued anonymous identifier %s", issued)
	return nil
}

// CurrentIdentifier returns the session identifier. The second return is
// false when no identifier could be established (sync disabled).
func (r *Resolver) CurrentIdentifier() (string, bool) {
	return r.identifier, r.identifier != ""
}

// Manual reports whether the session identifier was supplied by the user.
func (r *Resolver) Manual() bool {
	return r.manual
}

// SetManualIdentifier persists a manual identifier override. It takes
// effect on the next session: this is an explicit, user-visible
// re-identification, never a live re-key of the running session.
func (r *Resolver) SetManualIdentifier(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	return r.db.SetManualIdentifier(ctx, id)
}

// ClearManualIdentifier removes the manual override; the next session goes
// back to the anonymous identity.
func (r *Resolver) ClearManualIdentifier(ctx context.Context) error {
	return r.db.ClearManualIdentifier(ctx)
}
