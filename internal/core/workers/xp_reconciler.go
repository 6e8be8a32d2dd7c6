package workers

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	ListIDs(ctx context.Context) ([]string, error)
}

type Ledger interface {
	RecomputeXP(ctx context.Context, userID string) (before, after int, err error)
}

type ReconcileJob struct {
	UserID string
}

// XPReconciler brings users.xp back in line with the grant ledger.
type XPReconciler struct {
	users  UserStore
	ledger Ledger
	jobs   chan ReconcileJob
	log    logrus.FieldLogger
	cron   *cron.Cron
}

func NewXPReconciler(users UserStore, ledger Ledger, log logrus.FieldLogger) *XPReconciler {
	log = log.WithField("worker", "xp_reconciler")
	return &XPReconciler{
		users:  users,
		ledger: ledger,
		jobs:   make(chan ReconcileJob, 100),
		log:    log,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
	}
}

// Schedule registers a full pass on the given cron spec. Descriptors such as
// "@daily" are accepted.
func (w *XPReconciler) Schedule(ctx context.Context, spec string) error {
	_, err := w.cron.AddFunc(spec, func() {
		if err := w.EnqueueAll(ctx); err != nil {
			w.log.WithError(err).Error("scheduled reconciliation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("xp reconciler: invalid schedule %q: %w", spec, err)
	}
	return nil
}

func (w *XPReconciler) Start(ctx context.Context) {
	w.cron.Start()

	go func() {
		w.log.Info("xp reconciler started")
		for {
			select {
			case job := <-w.jobs:
				if err := w.processJob(ctx, job); err != nil {
					w.log.WithError(err).WithField("user_id", job.UserID).Warn("reconciliation failed")
				}
			case <-ctx.Done():
				<-w.cron.Stop().Done()
				w.log.Info("xp reconciler shutting down")
				return
			}
		}
	}()
}

// Enqueue is for ad-hoc single jobs and drops the job when the queue is full.
func (w *XPReconciler) Enqueue(userID string) {
	select {
	case w.jobs <- ReconcileJob{UserID: userID}:
	default:
		w.log.WithField("user_id", userID).Warn("queue full, dropping job")
	}
}

// EnqueueAll queues every user. Unlike Enqueue it waits for queue space, so
// it needs a running worker once there are more users than slots.
func (w *XPReconciler) EnqueueAll(ctx context.Context) error {
	ids, err := w.users.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		select {
		case w.jobs <- ReconcileJob{UserID: id}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (w *XPReconciler) processJob(ctx context.Context, job ReconcileJob) error {
	before, after, err := w.ledger.RecomputeXP(ctx, job.UserID)
	if err != nil {
		return err
	}

	if before == after {
		return nil
	}

	w.log.WithFields(logrus.Fields{
		"user_id": job.UserID,
		"stored":  before,
		"ledger":  after,
	}).Info("xp drift corrected")
	return nil
}
