package repository

import (
	"context"

	"BrentShift/internal/domain/models"
)

// EventStore persists the canonical detected-events table. Save replaces
// the whole table: after a run the table reflects exactly the reports from
// that run, never an append of history.
type EventStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, reports []*models.ChangePointReport) error
	Load(ctx context.Context) ([]models.EventRecord, error)
	Close() error
}

// EventPublisher fans detected change points out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, report *models.ChangePointReport) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordRowsLoaded(n int)
	RecordRowsDropped(kind string, n int)
	RecordStageDuration(stage string, seconds float64)
	RecordDetection(delta, confidence float64)
	RecordExport(backend string)
	RecordError(kind string)
}
