package document

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitForState(t *testing.T, store *Store, id string, want State) *Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if rec.State == want {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("document %s never reached %s", id, want)
	return nil
}

func TestPoolProcessesUpload(t *testing.T) {
	store, err := NewStore(t.TempDir(), testExtract(nil))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	pool := NewPool(store, 2)
	store.SetScheduler(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	id, err := store.Ingest(ctx, []byte("audit pdf bytes"), "audit.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	rec := waitForState(t, store, id, StateReady)
	if rec.PageCount != 2 {
		t.Errorf("page count: got %d, want 2", rec.PageCount)
	}
	if rec.ExtractedText != "text of audit.pdf" {
		t.Errorf("text: got %q", rec.ExtractedText)
	}

	cancel()
	<-done
}

func TestPoolMarksFailed(t *testing.T) {
	failing := func(_ context.Context, _ []byte, _ string) (string, Metadata, error) {
		return "", Metadata{}, errors.New("parse pdf: unexpected EOF")
	}
	store, err := NewStore(t.TempDir(), failing)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	pool := NewPool(store, 1)
	store.SetScheduler(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	id, err := store.Ingest(ctx, []byte("corrupt bytes"), "bad.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	rec := waitForState(t, store, id, StateFailed)
	if rec.FailureDetail != "parse pdf: unexpected EOF" {
		t.Errorf("failure detail: got %q", rec.FailureDetail)
	}
}

func TestConcurrentIngestSingleExtraction(t *testing.T) {
	var extractions atomic.Int32
	counting := func(_ context.Context, _ []byte, filename string) (string, Metadata, error) {
		extractions.Add(1)
		return "text of " + filename, Metadata{PageCount: 2}, nil
	}
	store, err := NewStore(t.TempDir(), counting)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	pool := NewPool(store, 4)
	store.SetScheduler(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	raw := []byte("same bytes")
	ids := make(chan string, 2)
	for i := 0; i < 2; i++ {
		go func() {
			id, err := store.Ingest(ctx, raw, "audit.pdf")
			if err != nil {
				t.Errorf("Ingest: %v", err)
			}
			ids <- id
		}()
	}
	a, b := <-ids, <-ids
	if a != b {
		t.Fatalf("concurrent ingest diverged: %s vs %s", a, b)
	}

	waitForState(t, store, a, StateReady)
	if n := extractions.Load(); n != 1 {
		t.Errorf("extractions: got %d, want 1", n)
	}
}

func TestPoolRecoversOrphanAfterRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, testExtract(nil))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, err := store.Ingest(context.Background(), []byte("orphaned"), "orphan.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Restart: the new process has an empty cache, and the sweep requeues the
	// id before anything looks it up.
	restarted, err := NewStore(dir, testExtract(nil))
	if err != nil {
		t.Fatalf("NewStore restarted: %v", err)
	}
	pool := NewPool(restarted, 1)
	pool.process(context.Background(), id)

	rec, err := restarted.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.State != StateReady {
		t.Errorf("state after recovery: got %s, want READY", rec.State)
	}
	if rec.PageCount != 2 {
		t.Errorf("page count: got %d", rec.PageCount)
	}
}

func TestReconcilerRequeuesPending(t *testing.T) {
	store, err := NewStore(t.TempDir(), testExtract(nil))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	// Ingest with no scheduler: the record stays PENDING, as after a crash.
	id, err := store.Ingest(context.Background(), []byte("orphaned"), "orphan.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	pool := NewPool(store, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	rec := NewReconciler(store, pool, "@every 1h")
	rec.sweep()

	waitForState(t, store, id, StateReady)
}
