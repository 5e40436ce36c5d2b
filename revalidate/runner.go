// Package revalidate closes the optimistic-recovery loophole: a resolution
// that trusted the cached attestation while the backend was unreachable is
// re-checked in the background until a resolution reaches the backend again,
// so a revocation that happened offline is eventually observed.
package revalidate

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/session"
)

// DefaultSchedule re-checks every five minutes while armed.
const DefaultSchedule = "@every 5m"

// Runner watches session resolutions and arms a cron entry whenever the
// latest one was served optimistically from the cache.
type Runner struct {
	ctrl     *session.Controller
	cron     *cron.Cron
	schedule string
	log      *logrus.Entry

	mu      sync.Mutex
	entryID cron.EntryID
	armed   bool
}

// NewRunner builds a runner. Schedule defaults to DefaultSchedule; log may
// be nil.
func NewRunner(schedule string, log *logrus.Entry) *Runner {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &Runner{cron: cron.New(), schedule: schedule, log: log}
}

// Attach subscribes to the controller and starts the cron loop. Call before
// Boot so a boot-time optimistic resolution is caught.
func (r *Runner) Attach(ctrl *session.Controller) {
	r.ctrl = ctrl
	ctrl.OnTransition(r.onTransition)
	r.cron.Start()
}

// Stop halts the cron loop. Pending entries finish their current run.
func (r *Runner) Stop() {
	r.disarm()
	r.cron.Stop()
}

func (r *Runner) onTransition(from, to session.State, snap session.Snapshot) {
	if to != session.StateAuthenticated {
		r.disarm()
		return
	}
	if snap.Resolution.Source.FromBackend() {
		r.disarm()
		return
	}
	if snap.Status().Entitled() {
		// Optimistic result: keep poking the backend until it answers.
		r.arm()
	}
}

func (r *Runner) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return
	}
	id, err := r.cron.AddFunc(r.schedule, r.revalidate)
	if err != nil {
		r.log.WithError(err).Warn("revalidation schedule rejected")
		return
	}
	r.entryID = id
	r.armed = true
	r.log.WithField("schedule", r.schedule).Info("background re-validation armed")
}

func (r *Runner) disarm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	r.cron.Remove(r.entryID)
	r.armed = false
	r.log.Debug("background re-validation disarmed")
}

// revalidate runs on the cron goroutine. Refresh re-resolves and the
// resulting transition either disarms (backend answered) or leaves the
// entry in place for the next tick.
func (r *Runner) revalidate() {
	if err := r.ctrl.Refresh(context.Background()); err != nil {
		r.log.WithError(err).Debug("background re-validation skipped")
	}
}
