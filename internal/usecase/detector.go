package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BrentShift/internal/changepoint"
	"BrentShift/internal/domain/models"
	domrepo "BrentShift/internal/domain/repository"
	"BrentShift/internal/loader"
	"BrentShift/internal/preprocess"
	"BrentShift/internal/report"
	applogger "BrentShift/pkg/logger"
)

// DetectionPipeline drives one batch run: load, preprocess, sample, build
// the report, persist it, and optionally fan it out. Stages run strictly
// in order; the only internal parallelism is across MCMC chains.
type DetectionPipeline struct {
	loader    *loader.Loader
	model     *changepoint.Model
	store     domrepo.EventStore
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger

	pricesPath string
	aggregate  models.AggregationMode
}

func NewDetectionPipeline(
	ld *loader.Loader,
	model *changepoint.Model,
	store domrepo.EventStore,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	pricesPath string,
	aggregate models.AggregationMode,
) *DetectionPipeline {
	return &DetectionPipeline{
		loader:     ld,
		model:      model,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		pricesPath: pricesPath,
		aggregate:  aggregate,
	}
}

// Run executes the full pipeline with the configured aggregation mode and
// returns the detected change point.
func (p *DetectionPipeline) Run(ctx context.Context) (*models.ChangePointReport, error) {
	return p.RunWith(ctx, p.aggregate)
}

// RunWith executes the pipeline with an explicit aggregation mode, as
// used by queued detection jobs.
func (p *DetectionPipeline) RunWith(ctx context.Context, aggregate models.AggregationMode) (*models.ChangePointReport, error) {
	start := time.Now()

	series, stats, err := p.stageLoad()
	if err != nil {
		return nil, err
	}

	returns, err := p.stageReturns(series, aggregate)
	if err != nil {
		return nil, err
	}

	trace, err := p.stageSample(ctx, returns)
	if err != nil {
		return nil, err
	}

	rep, err := report.Build(trace, returns.Dates())
	if err != nil {
		p.fail("report", err)
		return nil, fmt.Errorf("build report: %w", err)
	}

	if err := p.stageExport(ctx, rep); err != nil {
		return nil, err
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, rep); err != nil {
			// Fan-out is best effort: the durable artifact already
			// exists, so a broker hiccup only warrants a warning.
			p.metrics.RecordError("publish")
			p.log.Warn("change point publish failed", applogger.Error(err))
		}
	}

	p.metrics.RecordDetection(rep.Delta, rep.Confidence)
	p.log.Info("detection run complete",
		applogger.String("change_point", rep.Date.Format("2006-01-02")),
		applogger.Int("index", rep.Index),
		applogger.Any("delta", rep.Delta),
		applogger.Any("confidence", rep.Confidence),
		applogger.Int("rows_dropped", stats.Dropped()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return rep, nil
}

func (p *DetectionPipeline) stageLoad() (*models.PriceSeries, loader.Stats, error) {
	start := time.Now()
	series, stats, err := p.loader.Load(p.pricesPath)
	if err != nil {
		p.fail("load", err)
		return nil, stats, fmt.Errorf("load prices: %w", err)
	}
	p.metrics.RecordRowsLoaded(series.Len())
	p.metrics.RecordRowsDropped("date", stats.DroppedDates)
	p.metrics.RecordRowsDropped("price", stats.DroppedPrices)
	p.metrics.RecordStageDuration("load", time.Since(start).Seconds())
	return series, stats, nil
}

func (p *DetectionPipeline) stageReturns(series *models.PriceSeries, aggregate models.AggregationMode) (*models.ReturnSeries, error) {
	start := time.Now()
	returns, err := preprocess.Returns(series, aggregate)
	if err != nil {
		p.fail("preprocess", err)
		return nil, fmt.Errorf("compute returns: %w", err)
	}
	p.metrics.RecordStageDuration("preprocess", time.Since(start).Seconds())
	return returns, nil
}

func (p *DetectionPipeline) stageSample(ctx context.Context, returns *models.ReturnSeries) (*models.Trace, error) {
	start := time.Now()
	trace, err := p.model.Sample(ctx, returns)
	if err != nil {
		p.fail("sample", err)
		return nil, fmt.Errorf("sample posterior: %w", err)
	}
	p.metrics.RecordStageDuration("sample", time.Since(start).Seconds())
	return trace, nil
}

func (p *DetectionPipeline) stageExport(ctx context.Context, rep *models.ChangePointReport) error {
	start := time.Now()
	if err := p.store.Save(ctx, []*models.ChangePointReport{rep}); err != nil {
		p.fail("export", err)
		return fmt.Errorf("export events: %w", err)
	}
	p.metrics.RecordExport("events")
	p.metrics.RecordStageDuration("export", time.Since(start).Seconds())
	return nil
}

func (p *DetectionPipeline) fail(stage string, err error) {
	p.metrics.RecordError(errorKind(err))
	p.log.Error("pipeline stage failed",
		applogger.String("stage", stage),
		applogger.Error(err),
	)
}

// errorKind maps the terminal error taxonomy onto metric labels.
func errorKind(err error) string {
	var (
		mc *models.MissingColumnError
		ip *models.InvalidPriceError
		es *models.EmptySeriesError
		id *models.InsufficientDataError
	)
	switch {
	case errors.Is(err, models.ErrFileNotFound):
		return "file_not_found"
	case errors.As(err, &mc):
		return "missing_column"
	case errors.As(err, &ip):
		return "invalid_price"
	case errors.As(err, &es):
		return "empty_series"
	case errors.As(err, &id):
		return "insufficient_data"
	case errors.Is(err, models.ErrEmptyPosterior):
		return "empty_posterior"
	}
	return "internal"
}
