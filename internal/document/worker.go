package document

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const defaultQueueSize = 64

// Pool runs background extraction tasks for PENDING records. Ingest hands ids
// to Schedule; Run drains the queue with a fixed number of workers until the
// context is cancelled.
type Pool struct {
	store   *Store
	queue   chan string
	workers int
}

// NewPool creates an extraction pool with the given worker count.
func NewPool(store *Store, workers int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	return &Pool{
		store:   store,
		queue:   make(chan string, defaultQueueSize),
		workers: workers,
	}
}

// Schedule enqueues a document id for extraction. A full queue drops the task
// with a warning; the reconcile sweep picks stuck PENDING records back up.
func (p *Pool) Schedule(id string) {
	select {
	case p.queue <- id:
	default:
		slog.Warn("extraction queue full, deferring to reconcile sweep", "id", id)
	}
}

// Run blocks processing the queue until ctx is cancelled, then returns nil.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-p.queue:
					p.process(ctx, id)
				}
			}
		})
	}
	return g.Wait()
}

func (p *Pool) process(ctx context.Context, id string) {
	raw, rec, err := p.store.ReadBlob(id)
	if err != nil {
		slog.Error("extraction: read blob", "id", id, "err", err)
		return
	}

	text, meta, err := p.store.extract(ctx, raw, rec.Filename)
	if err != nil {
		slog.Warn("extraction failed", "id", id, "filename", rec.Filename, "err", err)
		if markErr := p.store.MarkFailed(id, err.Error()); markErr != nil {
			logMarkError("mark failed", id, markErr)
		}
		return
	}

	if err := p.store.MarkReady(id, text, meta); err != nil {
		logMarkError("mark ready", id, err)
		return
	}
	slog.Info("document ready", "id", id, "filename", rec.Filename, "pages", meta.PageCount)
}

// A non-PENDING record here means another worker already finished this id
// (e.g. a reconcile re-enqueue raced a slow extraction). Not an error.
func logMarkError(op, id string, err error) {
	if errors.Is(err, ErrInvalidState) {
		slog.Debug("extraction already settled", "op", op, "id", id)
		return
	}
	slog.Error("extraction state transition", "op", op, "id", id, "err", err)
}
