// Package app wires configuration, local storage, identity, and sync into
// a running application. Every nova command builds one App, works against
// its orchestrator, and closes it, which flushes any pending push.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"cloud.google.com/go/firestore"

	"github.com/lunarnova/nova/internal/config"
	"github.com/lunarnova/nova/internal/identity"
	"github.com/lunarnova/nova/internal/local"
	"github.com/lunarnova/nova/internal/logging"
	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/remote"
	"github.com/lunarnova/nova/internal/syncer"
	"github.com/lunarnova/nova/internal/ui"
)

// Options tunes App construction.
type Options struct {
	// Verbose mirrors log output to stderr.
	Verbose bool
	// Notifier receives user-facing sync notifications. Nil means none.
	Notifier syncer.Notifier
	// Bootstrap controls whether the startup pull runs. Commands that never
	// read or write projects (config, theme, id) skip it.
	Bootstrap bool
}

// App is one running session: local store, resolved identity, and the
// sync orchestrator around them.
type App struct {
	Config   *config.Config
	DB       *local.DB
	Resolver *identity.Resolver
	Orch     *syncer.Orchestrator

	sink     *logging.Sink
	fsClient *firestore.Client
	notifier syncer.Notifier
}

// New builds an application from configuration. Sync problems never fail
// construction: a session that cannot reach its backend or establish an
// identity degrades to local-only with a notification, not an error.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Notifier == nil {
		opts.Notifier = syncer.NopNotifier{}
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sink := logging.NewSink(cfg.LogPath(), opts.Verbose)

	db, err := local.Open(cfg.DatabasePath(), sink.Logger("local"))
	if err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	if theme, err := db.Theme(ctx); err == nil && theme != "" {
		ui.Apply(theme)
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		sink:     sink,
		notifier: opts.Notifier,
	}

	identifier := a.resolveIdentity(ctx)

	a.Orch = syncer.New(project.NewStore(), db, a.remoteSyncer(), syncer.Options{
		Identifier: identifier,
		Timeout:    cfg.Sync.Timeout,
		Notifier:   opts.Notifier,
		Logger:     sink.Logger("sync"),
	})

	if opts.Bootstrap {
		a.Orch.Bootstrap(ctx)
	}
	return a, nil
}

// resolveIdentity connects to the identity backend when sync is configured
// and resolves the session identifier. Any failure logs, notifies, and
// leaves the session local-only.
func (a *App) resolveIdentity(ctx context.Context) string {
	logger := a.sink.Logger("identity")

	var provider identity.Provider
	if a.Config.SyncConfigured() {
		fbApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(a.Config.CredentialsFile))
		if err != nil {
			logger.Printf("Failed to initialize sync backend: %v", err)
			a.notifier.Warn("sync backend unavailable, working locally")
		} else {
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				logger.Printf("Failed to initialize identity service: %v", err)
				a.notifier.Warn("sync backend unavailable, working locally")
			} else {
				provider = identity.NewFirebaseProvider(authClient, logger)
			}

			fsClient, err := fbApp.Firestore(ctx)
			if err != nil {
				logger.Printf("Failed to initialize document store: %v", err)
			} else {
				a.fsClient = fsClient
			}
		}
	}

	a.Resolver = identity.NewResolver(a.DB, provider, logger)
	if err := a.Resolver.Resolve(ctx); err != nil {
		if errors.Is(err, identity.ErrIssuanceDisabled) {
			a.notifier.Warn("sync is unavailable: anonymous sign-in is disabled for this backend; set an identifier with 'nova id set' or enable anonymous sign-in")
		} else {
			logger.Printf("Identity resolution failed: %v", err)
			a.notifier.Warn("could not establish a sync identity, working locally")
		}
		return ""
	}

	id, ok := a.Resolver.CurrentIdentifier()
	if !ok {
		return ""
	}
	return id
}

// remoteSyncer returns the configured remote, or nil for local-only.
func (a *App) remoteSyncer() remote.Syncer {
	if a.fsClient == nil {
		return nil
	}
	return remote.NewFirestore(a.fsClient, a.sink.Logger("remote"))
}

// SyncEnabled reports whether this session talks to a remote.
func (a *App) SyncEnabled() bool {
	return a.Orch.SyncEnabled()
}

// Close flushes any pending push and releases all resources. It must run
// before process exit or a trailing mutation may never reach the remote.
func (a *App) Close() error {
	var firstErr error

	if err := a.Orch.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.fsClient != nil {
		if err := a.fsClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.sink.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
