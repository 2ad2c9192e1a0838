// Package syncer coordinates the in-memory project store, local
// persistence, and the remote document.
//
// The orchestrator applies a deliberately simple conflict policy: one
// whole-collection snapshot replaces another, with no field-level merge.
// At startup a non-empty remote collection wins outright; an empty remote
// adopts local state. After that, every local mutation persists locally
// first and then schedules an asynchronous push of the full snapshot.
// Pushes coalesce: at most one is in flight and at most one is pending,
// and a new mutation supersedes the pending one, so the remote always ends
// up with some complete snapshot, never an interleaving.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/lunarnova/nova/internal/local"
	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/remote"
)

// State is the orchestrator's position in the sync lifecycle.
type State string

const (
	StateUnsynced   State = "unsynced"
	StatePulling    State = "pulling"
	StateReconciled State = "reconciled"
	StatePullFailed State = "pull_failed"
	StatePushing    State = "pushing"
)

// Outcome describes what a pull-and-reconcile pass did.
type Outcome string

const (
	// OutcomeRemoteWins: the remote collection was non-empty and replaced
	// local state wholesale.
	OutcomeRemoteWins Outcome = "remote_wins"
	// OutcomeAdoptedLocal: the remote was empty or absent while local held
	// data; a push of the local collection was scheduled.
	OutcomeAdoptedLocal Outcome = "adopted_local"
	// OutcomeNoData: both sides were empty; nothing to do.
	OutcomeNoData Outcome = "no_data"
	// OutcomeOffline: the pull failed; local persistence is serving.
	OutcomeOffline Outcome = "offline"
	// OutcomeDisabled: sync is off for this session (no identifier).
	OutcomeDisabled Outcome = "disabled"
)

// DefaultTimeout bounds a single pull or push when the config doesn't.
const DefaultTimeout = 15 * time.Second

// Notifier receives user-facing, non-blocking notifications. Remote and
// storage errors never propagate past the orchestrator as failures that
// would halt the caller; they land here instead.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Info(string) {}
func (NopNotifier) Warn(string) {}

// Event is emitted after state-changing orchestrator activity, for
// observers such as the dashboard.
type Event struct {
	Kind      string    `json:"kind"` // mutation, pull, push_ok, push_failed
	ProjectID string    `json:"project_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is a point-in-time snapshot of the orchestrator.
type Status struct {
	State       State     `json:"state"`
	SyncEnabled bool      `json:"sync_enabled"`
	Identifier  string    `json:"identifier,omitempty"`
	Projects    int       `json:"projects"`
	LastPullAt  time.Time `json:"last_pull_at,omitzero"`
	LastPullErr string    `json:"last_pull_err,omitempty"`
	LastPushAt  time.Time `json:"last_push_at,omitzero"`
	LastPushErr string    `json:"last_push_err,omitempty"`
}

// Options configures an Orchestrator.
type Options struct {
	// Identifier keys the remote document. Empty disables sync.
	Identifier string
	// Timeout bounds each pull and push. Zero means DefaultTimeout.
	Timeout time.Duration
	// Notifier receives transient user-facing messages. Nil means none.
	Notifier Notifier
	// Logger for orchestrator activity. Nil means a stderr logger.
	Logger *log.Logger
}

// Orchestrator owns the canonical application state: the store plus the
// sync machinery around it. All store access goes through it.
type Orchestrator struct {
	store    *project.Store
	db       *local.DB
	remote   remote.Syncer
	id       string
	timeout  time.Duration
	notifier Notifier
	logger   *log.Logger

	mu          sync.Mutex
	state       State
	lastPullAt  time.Time
	lastPullErr error
	lastPushAt  time.Time
	lastPushErr error
	onEvent     func(Event)

	// pushMu serializes push attempts: at most one is ever in flight.
	pushMu sync.Mutex
	signal chan struct{}
	quit   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// New creates an orchestrator. A nil remote (or empty identifier) runs the
// session local-only: mutations still persist, pushes become no-ops.
func New(store *project.Store, db *local.DB, rem remote.Syncer, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	o := &Orchestrator{
		store:    store,
		db:       db,
		remote:   rem,
		id:       opts.Identifier,
		timeout:  opts.Timeout,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		state:    StateUnsynced,
		signal:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}

	o.wg.Add(1)
	go o.pushLoop()

	return o
}

// SetEventFunc registers a callback invoked after orchestrator activity.
// The callback runs on the orchestrator's goroutines and must not block.
func (o *Orchestrator) SetEventFunc(fn func(Event)) {
	o.mu.Lock()
	o.onEvent = fn
	o.mu.Unlock()
}

func (o *Orchestrator) emit(kind, projectID string) {
	o.mu.Lock()
	fn := o.onEvent
	o.mu.Unlock()
	if fn != nil {
		fn(Event{Kind: kind, ProjectID: projectID, Timestamp: time.Now()})
	}
}

// SyncEnabled reports whether this session can reach the remote.
func (o *Orchestrator) SyncEnabled() bool {
	return o.remote != nil && o.id != ""
}

// Bootstrap performs the startup read path: local persistence first as the
// durability floor, then a remote pull whose result reconciles per the
// document-wins rule. Pull failures are silent here; the user is never
// blocked at startup; the local mirror serves instead.
func (o *Orchestrator) Bootstrap(ctx context.Context) Outcome {
	outcome, err := o.pullAndReconcile(ctx)
	if err != nil {
		o.logger.Printf("Startup pull failed, serving local state: %v", err)
	}
	return outcome
}

// RequestSync performs an explicit, user-triggered pull and reconcile.
// Unlike Bootstrap, failures are surfaced through the notifier.
func (o *Orchestrator) RequestSync(ctx context.Context) (Outcome, error) {
	outcome, err := o.pullAndReconcile(ctx)
	if err != nil {
		o.notifier.Warn(fmt.Sprintf("sync failed: %v", err))
	}
	return outcome, err
}

// pullAndReconcile loads local state, pulls the remote document, and
// applies the reconciliation rule:
//
//   - remote non-empty: remote wins outright, local mirror rewritten
//   - remote empty or absent, local non-empty: push local (remote adopts)
//   - both empty: nothing
//   - pull error: fall back to local, state PullFailed
func (o *Orchestrator) pullAndReconcile(ctx context.Context) (Outcome, error) {
	localC, err := o.db.LoadCollection(ctx)
	if err != nil {
		o.logger.Printf("Failed to load local collection: %v", err)
		localC = project.Collection{}
	}

	if !o.SyncEnabled() {
		o.mu.Lock()
		o.store.Replace(localC)
		o.state = StateUnsynced
		o.mu.Unlock()
		o.emit("pull", "")
		return OutcomeDisabled, nil
	}

	o.mu.Lock()
	o.state = StatePulling
	o.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	remoteC, pullErr := o.remote.Pull(pctx, o.id)
	cancel()

	now := time.Now()

	if pullErr != nil && !errors.Is(pullErr, remote.ErrAbsent) {
		o.mu.Lock()
		o.store.Replace(localC)
		o.state = StatePullFailed
		o.lastPullAt = now
		o.lastPullErr = pullErr
		o.mu.Unlock()
		o.emit("pull", "")
		return OutcomeOffline, fmt.Errorf("pull failed: %w", pullErr)
	}

	o.mu.Lock()
	o.lastPullAt = now
	o.lastPullErr = nil

	var outcome Outcome
	switch {
	case len(remoteC) > 0:
		// Document-wins: the remote snapshot replaces local state with no
		// per-project comparison, and is mirrored to persistence.
		o.store.Replace(remoteC)
		mirror := o.store.List()
		o.state = StateReconciled
		o.mu.Unlock()

		if err := o.db.SaveCollection(ctx, mirror); err != nil {
			o.logger.Printf("Failed to mirror remote collection locally: %v", err)
			o.notifier.Warn("could not save synced projects locally")
		}
		outcome = OutcomeRemoteWins

	case len(localC) > 0:
		o.store.Replace(localC)
		o.state = StateReconciled
		o.mu.Unlock()

		// Remote is empty or absent: it adopts local state.
		o.schedulePush()
		outcome = OutcomeAdoptedLocal

	default:
		o.store.Replace(project.Collection{})
		o.state = StateReconciled
		o.mu.Unlock()
		outcome = OutcomeNoData
	}

	o.emit("pull", "")
	return outcome, nil
}

// Mutate applies fn to the store under the orchestrator's lock, then
// persists locally and schedules an asynchronous push. An error from fn
// aborts before any persistence. Local save failures are notified but do
// not fail the mutation: the in-memory store stays authoritative for the
// session.
func (o *Orchestrator) Mutate(ctx context.Context, projectID string, fn func(*project.Store) error) error {
	o.mu.Lock()
	if err := fn(o.store); err != nil {
		o.mu.Unlock()
		return err
	}
	snapshot := o.store.List()
	o.mu.Unlock()

	if err := o.db.SaveCollection(ctx, snapshot); err != nil {
		o.logger.Printf("Local save failed: %v", err)
		o.notifier.Warn(fmt.Sprintf("could not save locally: %v", err))
	}

	o.emit("mutation", projectID)
	o.schedulePush()
	return nil
}

// Snapshot returns the current collection for read-only use.
func (o *Orchestrator) Snapshot() project.Collection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.List()
}

// Find returns a copy of one project from the store.
func (o *Orchestrator) Find(id string) (*project.Project, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Find(id)
}

// Status returns a snapshot of orchestrator state for display.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Status{
		State:       o.state,
		SyncEnabled: o.SyncEnabled(),
		Identifier:  o.id,
		Projects:    o.store.Len(),
		LastPullAt:  o.lastPullAt,
		LastPushAt:  o.lastPushAt,
	}
	if o.lastPullErr != nil {
		s.LastPullErr = o.lastPullErr.Error()
	}
	if o.lastPushErr != nil {
		s.LastPushErr = o.lastPushErr.Error()
	}
	return s
}

// schedulePush marks a push pending. The buffered-1 channel is the whole
// queue: if a push is already pending, the new request folds into it,
// because a later push carries the full current snapshot anyway.
func (o *Orchestrator) schedulePush() {
	if !o.SyncEnabled() {
		return
	}
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// pushLoop is the single push worker. One push in flight at a time; the
// snapshot is taken when the push starts, not when it was scheduled, so a
// stale pending push is harmless, it simply carries newer data.
func (o *Orchestrator) pushLoop() {
	defer o.wg.Done()

	for {
		select {
		case <-o.signal:
			o.pushOnce()
		case <-o.quit:
			// Flush a pending push before exiting so a one-shot CLI
			// session doesn't silently drop its final write.
			select {
			case <-o.signal:
				o.pushOnce()
			default:
			}
			return
		}
	}
}

// pushOnce pushes the current full snapshot. Failure never rolls back
// local state; it is recorded, notified, and the orchestrator returns to
// Reconciled to await the next mutation or explicit sync.
func (o *Orchestrator) pushOnce() {
	o.pushMu.Lock()
	defer o.pushMu.Unlock()

	o.mu.Lock()
	if !o.SyncEnabled() {
		o.mu.Unlock()
		return
	}
	snapshot := o.store.List()
	prev := o.state
	o.state = StatePushing
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	err := o.remote.Push(ctx, o.id, snapshot)
	cancel()

	o.mu.Lock()
	if prev == StatePushing || prev == StateUnsynced {
		prev = StateReconciled
	}
	o.state = prev
	o.lastPushAt = time.Now()
	o.lastPushErr = err
	o.mu.Unlock()

	if err != nil {
		o.logger.Printf("Push failed: %v", err)
		o.notifier.Warn(fmt.Sprintf("cloud save failed: %v", err))
		o.emit("push_failed", "")
		return
	}
	o.emit("push_ok", "")
}

// Flush schedules nothing new but waits until the pending push, if any,
// has been attempted. Used by explicit sync to report a settled status.
func (o *Orchestrator) Flush() {
	for {
		select {
		case <-o.signal:
			o.pushOnce()
		default:
			return
		}
	}
}

// Close stops the worker, flushing at most one pending push first. Safe to
// call more than once.
func (o *Orchestrator) Close() error {
	o.closed.Do(func() {
		close(o.quit)
	})
	o.wg.Wait()
	return nil
}
