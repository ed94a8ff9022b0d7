package document

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Reconciler periodically re-enqueues records stuck in PENDING — typically
// uploads whose extraction was lost to a crash or a full queue.
type Reconciler struct {
	store *Store
	pool  *Pool
	cron  *cron.Cron
	spec  string
}

// NewReconciler creates a sweep on the given cron spec (e.g. "@every 5m").
func NewReconciler(store *Store, pool *Pool, spec string) *Reconciler {
	return &Reconciler{
		store: store,
		pool:  pool,
		cron:  cron.New(),
		spec:  spec,
	}
}

// Start registers and starts the sweep schedule.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule. Running sweeps finish.
func (r *Reconciler) Stop() {
	r.cron.Stop()
}

func (r *Reconciler) sweep() {
	var requeued int
	for s := range r.store.All() {
		if s.State == StatePending {
			r.pool.Schedule(s.ID)
			requeued++
		}
	}
	if requeued > 0 {
		slog.Info("reconcile sweep requeued pending documents", "count", requeued)
	}
}
