package core

import (
	"context"
	"time"
)

// ErrorRecord is one user-visible backend failure, as classified.
type ErrorRecord struct {
	At         time.Time
	ActorID    string
	Endpoint   string
	Category   string
	StatusCode int
	Message    string
}

// AuditSink records classified, non-suppressed errors to an external sink
// (e.g., Postgres). Implementations should be non-blocking and best-effort.
type AuditSink interface {
	RecordError(ctx context.Context, rec ErrorRecord) error
}
