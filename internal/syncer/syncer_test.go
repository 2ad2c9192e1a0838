package syncer

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lunarnova/nova/internal/local"
	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/remote"
)

// fakeRemote is an in-memory Syncer standing in for the cloud document.
type fakeRemote struct {
	mu      sync.Mutex
	absent  bool
	pullC   project.Collection
	pullErr error
	pushErr error
	pushed  []project.Collection
}

func (f *fakeRemote) Pull(ctx context.Context, id string) (project.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.absent {
		return nil, remote.ErrAbsent
	}
	return f.pullC.Clone(), nil
}

func (f *fakeRemote) Push(ctx context.Context, id string, c project.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, c.Clone())
	return nil
}

func (f *fakeRemote) pushes() []project.Collection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]project.Collection, len(f.pushed))
	copy(out, f.pushed)
	return out
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	warns []string
}

func (n *recordingNotifier) Info(msg string) {}
func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	n.warns = append(n.warns, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) warnCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.warns)
}

func setupLocal(t *testing.T) *local.DB {
	t.Helper()
	db, err := local.Open(filepath.Join(t.TempDir(), "nova.db"), log.New(os.Stderr, "[test] ", 0))
	if err != nil {
		t.Fatalf("failed to open local db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newOrchestrator(t *testing.T, db *local.DB, rem remote.Syncer, notifier Notifier) *Orchestrator {
	t.Helper()
	o := New(project.NewStore(), db, rem, Options{
		Identifier: "uid-test",
		Timeout:    2 * time.Second,
		Notifier:   notifier,
		Logger:     log.New(os.Stderr, "[test-sync] ", 0),
	})
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func coll(titles ...string) project.Collection {
	var c project.Collection
	for _, title := range titles {
		p := project.New(title, "# "+title)
		p.Status = project.StatusActive
		c = append(c, p)
	}
	return c
}

func titles(c project.Collection) []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Title
	}
	return out
}

func TestBootstrapRemoteWins(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()

	localC := coll("Local A", "Local B")
	if err := db.SaveCollection(ctx, localC); err != nil {
		t.Fatal(err)
	}

	remoteC := coll("Remote only")
	rem := &fakeRemote{pullC: remoteC}
	o := newOrchestrator(t, db, rem, nil)

	outcome := o.Bootstrap(ctx)
	if outcome != OutcomeRemoteWins {
		t.Fatalf("expected remote_wins, got %s", outcome)
	}

	if diff := cmp.Diff(titles(remoteC), titles(o.Snapshot())); diff != "" {
		t.Errorf("store mismatch (-remote +store):\n%s", diff)
	}

	// Local persistence must mirror the winning remote snapshot.
	mirrored, err := db.LoadCollection(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(titles(remoteC), titles(mirrored)); diff != "" {
		t.Errorf("local mirror mismatch (-remote +local):\n%s", diff)
	}
}

func TestBootstrapRemoteEmptyAdoptsLocal(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()

	localC := coll("Keep me")
	if err := db.SaveCollection(ctx, localC); err != nil {
		t.Fatal(err)
	}

	rem := &fakeRemote{absent: true}
	o := newOrchestrator(t, db, rem, nil)

	outcome := o.Bootstrap(ctx)
	if outcome != OutcomeAdoptedLocal {
		t.Fatalf("expected adopted_local, got %s", outcome)
	}
	if diff := cmp.Diff(titles(localC), titles(o.Snapshot())); diff != "" {
		t.Errorf("store must keep local state:\n%s", diff)
	}

	// Close flushes the scheduled push; the remote must have adopted L.
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}
	pushes := rem.pushes()
	if len(pushes) == 0 {
		t.Fatal("expected a push of local state")
	}
	if diff := cmp.Diff(titles(localC), titles(pushes[len(pushes)-1])); diff != "" {
		t.Errorf("pushed payload mismatch:\n%s", diff)
	}
}

func TestBootstrapBothEmpty(t *testing.T) {
	db := setupLocal(t)
	rem := &fakeRemote{absent: true}
	o := newOrchestrator(t, db, rem, nil)

	outcome := o.Bootstrap(context.Background())
	if outcome != OutcomeNoData {
		t.Fatalf("expected no_data, got %s", outcome)
	}
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}
	if len(rem.pushes()) != 0 {
		t.Error("no push must be issued when both sides are empty")
	}
}

func TestBootstrapPullFailureFallsBackToLocal(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()

	localC := coll("Offline copy")
	if err := db.SaveCollection(ctx, localC); err != nil {
		t.Fatal(err)
	}

	rem := &fakeRemote{pullErr: errors.New("network unreachable")}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, db, rem, notifier)

	outcome := o.Bootstrap(ctx)
	if outcome != OutcomeOffline {
		t.Fatalf("expected offline, got %s", outcome)
	}
	if diff := cmp.Diff(titles(localC), titles(o.Snapshot())); diff != "" {
		t.Errorf("store must equal local persistence:\n%s", diff)
	}
	if o.Status().State != StatePullFailed {
		t.Errorf("expected pull_failed state, got %s", o.Status().State)
	}
	// Startup fallback is silent; no user-facing warning.
	if notifier.warnCount() != 0 {
		t.Errorf("startup pull failure must not notify, got %d warnings", notifier.warnCount())
	}
}

func TestRequestSyncSurfacesPullFailure(t *testing.T) {
	db := setupLocal(t)
	rem := &fakeRemote{pullErr: errors.New("permission denied")}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, db, rem, notifier)

	if _, err := o.RequestSync(context.Background()); err == nil {
		t.Fatal("expected error from explicit sync")
	}
	if notifier.warnCount() == 0 {
		t.Error("explicit sync failure must notify the user")
	}
}

func TestMutatePersistsLocallyAndPushes(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()
	rem := &fakeRemote{absent: true}
	o := newOrchestrator(t, db, rem, nil)
	o.Bootstrap(ctx)

	p := project.New("Created", "# Created")
	err := o.Mutate(ctx, p.ID, func(s *project.Store) error {
		return s.Upsert(p)
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	// Local persistence is written synchronously.
	persisted, err := db.LoadCollection(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 || persisted[0].Title != "Created" {
		t.Errorf("expected mutation persisted locally, got %d", len(persisted))
	}

	if err := o.Close(); err != nil {
		t.Fatal(err)
	}
	pushes := rem.pushes()
	if len(pushes) == 0 {
		t.Fatal("expected a push after mutation")
	}
	last := pushes[len(pushes)-1]
	if len(last) != 1 || last[0].Title != "Created" {
		t.Errorf("pushed snapshot mismatch: %v", titles(last))
	}
}

func TestMutateErrorLeavesEverythingUntouched(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()
	rem := &fakeRemote{absent: true}
	o := newOrchestrator(t, db, rem, nil)

	p := project.New("Valid", "# Valid")
	p.Title = "" // fails validation inside Upsert
	err := o.Mutate(ctx, p.ID, func(s *project.Store) error {
		return s.Upsert(p)
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	if len(o.Snapshot()) != 0 {
		t.Error("store must be unchanged after failed mutation")
	}
	persisted, _ := db.LoadCollection(ctx)
	if len(persisted) != 0 {
		t.Error("nothing must be persisted after failed mutation")
	}
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}
	if len(rem.pushes()) != 0 {
		t.Error("no push must be scheduled after failed mutation")
	}
}

func TestPushFailureDoesNotRollBack(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()
	rem := &fakeRemote{absent: true, pushErr: errors.New("quota exceeded")}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, db, rem, notifier)
	o.Bootstrap(ctx)

	p := project.New("Survives", "# Survives")
	if err := o.Mutate(ctx, p.ID, func(s *project.Store) error { return s.Upsert(p) }); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	// Close waits for the scheduled push attempt to settle.
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	if len(o.Snapshot()) != 1 {
		t.Error("local mutation must survive push failure")
	}
	status := o.Status()
	if status.LastPushErr == "" {
		t.Error("push failure must be recorded in status")
	}
	if status.State == StatePushing {
		t.Error("orchestrator must return to a settled state after a failed push")
	}
	if notifier.warnCount() == 0 {
		t.Error("push failure must be notified")
	}
}

func TestSupersedingPushesCarryWholeSnapshots(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()
	rem := &fakeRemote{absent: true}
	o := newOrchestrator(t, db, rem, nil)
	o.Bootstrap(ctx)

	// Burst of mutations; pending pushes supersede rather than queue.
	var lastSnapshot project.Collection
	for i := 0; i < 10; i++ {
		p := project.New("Burst", "# Burst")
		if err := o.Mutate(ctx, p.ID, func(s *project.Store) error { return s.Upsert(p) }); err != nil {
			t.Fatalf("Mutate %d failed: %v", i, err)
		}
	}
	lastSnapshot = o.Snapshot()

	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	pushes := rem.pushes()
	if len(pushes) == 0 {
		t.Fatal("expected at least one push")
	}
	// Every observed remote payload must be a complete snapshot that the
	// store held at some point, never an interleaving. The final one must
	// be the final store state.
	final := pushes[len(pushes)-1]
	if diff := cmp.Diff(titles(lastSnapshot), titles(final)); diff != "" {
		t.Errorf("final remote payload must equal final snapshot:\n%s", diff)
	}
	if len(pushes) > 10 {
		t.Errorf("pushes must coalesce, got %d for 10 mutations", len(pushes))
	}
}

func TestSyncDisabledRunsLocalOnly(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()

	o := New(project.NewStore(), db, nil, Options{
		Logger: log.New(os.Stderr, "[test-sync] ", 0),
	})
	t.Cleanup(func() { _ = o.Close() })

	outcome := o.Bootstrap(ctx)
	if outcome != OutcomeDisabled {
		t.Fatalf("expected disabled, got %s", outcome)
	}

	p := project.New("Local only", "# Local only")
	if err := o.Mutate(ctx, p.ID, func(s *project.Store) error { return s.Upsert(p) }); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	persisted, err := db.LoadCollection(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 {
		t.Errorf("mutations must persist locally with sync disabled, got %d", len(persisted))
	}
}

func TestPullTimeoutIsAFailedPull(t *testing.T) {
	db := setupLocal(t)
	ctx := context.Background()

	slow := &slowRemote{delay: 500 * time.Millisecond}
	o := New(project.NewStore(), db, slow, Options{
		Identifier: "uid-test",
		Timeout:    20 * time.Millisecond,
		Logger:     log.New(os.Stderr, "[test-sync] ", 0),
	})
	t.Cleanup(func() { _ = o.Close() })

	outcome := o.Bootstrap(ctx)
	if outcome != OutcomeOffline {
		t.Fatalf("expected offline after timeout, got %s", outcome)
	}
	if o.Status().State != StatePullFailed {
		t.Errorf("expected pull_failed, got %s", o.Status().State)
	}
}

// slowRemote blocks until the context expires.
type slowRemote struct {
	delay time.Duration
}

func (s *slowRemote) Pull(ctx context.Context, id string) (project.Collection, error) {
	select {
	case <-time.After(s.delay):
		return project.Collection{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowRemote) Push(ctx context.Context, id string, c project.Collection) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
