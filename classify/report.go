package classify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/core"
)

// Reporter is the funnel every CRUD call site pushes failures through. It
// classifies, logs, records non-suppressed failures to the audit sink, and
// returns the message to render ("" when the failure must be absorbed).
type Reporter struct {
	classifier *Classifier
	sink       core.AuditSink
	clock      core.Clock
	log        *logrus.Entry
}

// NewReporter wires a reporter. Sink may be nil (no audit trail); log may be
// nil (logging disabled).
func NewReporter(c *Classifier, sink core.AuditSink, clock core.Clock, log *logrus.Entry) *Reporter {
	if c == nil {
		c = New(nil)
	}
	if clock == nil {
		clock = core.RealClock{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &Reporter{classifier: c, sink: sink, clock: clock, log: log}
}

// Classify exposes the underlying classifier for callers that need the full
// outcome (e.g., the session controller watching for auth failures).
func (r *Reporter) Classify(err error, ep Endpoint) Outcome {
	return r.classifier.Classify(err, ep)
}

// Report classifies err and returns the user-facing message, or "" if the
// failure is suppressed. ActorID may be empty for guests.
func (r *Reporter) Report(ctx context.Context, actorID string, err error, ep Endpoint) string {
	out := r.classifier.Classify(err, ep)
	fields := logrus.Fields{
		"endpoint":    ep.Name,
		"category":    out.Category,
		"status_code": out.StatusCode,
		"suppressed":  out.Suppressed,
	}
	if out.Suppressed {
		r.log.WithFields(fields).Debug("backend failure absorbed")
		return ""
	}
	if out.Category == CategoryEntitlement {
		// Lacking coverage is the prompt flow's business, never a toast.
		r.log.WithFields(fields).Info("entitlement signal routed to the prompt flow")
		return ""
	}
	r.log.WithFields(fields).WithError(err).Warn("backend failure shown to user")
	if r.sink != nil {
		rec := core.ErrorRecord{
			At:         r.clock.Now(),
			ActorID:    actorID,
			Endpoint:   ep.Name,
			Category:   string(out.Category),
			StatusCode: out.StatusCode,
			Message:    out.Message,
		}
		if err := r.sink.RecordError(ctx, rec); err != nil {
			r.log.WithError(err).Debug("audit sink write failed")
		}
	}
	return out.Message
}
