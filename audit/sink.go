// Package audit persists the user-visible failures the classifier let
// through, giving operators a trail of what users actually saw. Suppressed
// failures are never recorded.
package audit

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/PaulFidika/licensekit/core"
)

type errorRow struct {
	bun.BaseModel `bun:"table:error_audit"`

	ID         int64     `bun:"id,pk,autoincrement"`
	At         time.Time `bun:"at,notnull"`
	ActorID    string    `bun:"actor_id"`
	Endpoint   string    `bun:"endpoint,notnull"`
	Category   string    `bun:"category,notnull"`
	StatusCode int       `bun:"status_code"`
	Message    string    `bun:"message"`
}

// Sink writes error records through bun. It satisfies core.AuditSink.
type Sink struct {
	db *bun.DB
}

// NewSink binds the sink to a bun database handle.
func NewSink(db *bun.DB) *Sink {
	return &Sink{db: db}
}

// RecordError inserts one row. Callers treat failures as best-effort.
func (s *Sink) RecordError(ctx context.Context, rec core.ErrorRecord) error {
	if s.db == nil {
		return nil
	}
	row := &errorRow{
		At:         rec.At,
		ActorID:    rec.ActorID,
		Endpoint:   rec.Endpoint,
		Category:   rec.Category,
		StatusCode: rec.StatusCode,
		Message:    rec.Message,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}
