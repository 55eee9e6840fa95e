package usecase

import (
	"context"
	"fmt"

	"BrentShift/internal/domain/models"
	applogger "BrentShift/pkg/logger"
	"BrentShift/pkg/queue"
)

// JobTypeDetect is the queue message type for a detection run.
const JobTypeDetect = "detection.run"

// DetectJob is the payload of a queued detection request.
type DetectJob struct {
	Aggregate string `json:"aggregate"`
}

// DetectionJob consumes queued detection requests and runs the full
// pipeline, invalidating the serving cache when a run succeeds.
type DetectionJob struct {
	pipeline *DetectionPipeline
	events   *EventsUseCase
	log      *applogger.Logger
}

func NewDetectionJob(pipeline *DetectionPipeline, events *EventsUseCase, log *applogger.Logger) *DetectionJob {
	return &DetectionJob{pipeline: pipeline, events: events, log: log}
}

func (j *DetectionJob) Name() string { return "detection" }

func (j *DetectionJob) Type() string { return JobTypeDetect }

func (j *DetectionJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[DetectJob](payload)
	if err != nil {
		return fmt.Errorf("parse detect job: %w", err)
	}

	mode, ok := models.ParseAggregationMode(job.Aggregate)
	if !ok {
		return fmt.Errorf("unknown aggregation mode %q", job.Aggregate)
	}

	rep, err := j.pipeline.RunWith(ctx, mode)
	if err != nil {
		return fmt.Errorf("detection run: %w", err)
	}

	if j.events != nil {
		j.events.Invalidate(ctx)
	}
	j.log.Info("queued detection finished",
		applogger.String("aggregate", string(mode)),
		applogger.String("change_point", rep.Date.Format("2006-01-02")),
	)
	return nil
}

var _ queue.Job = (*DetectionJob)(nil)
