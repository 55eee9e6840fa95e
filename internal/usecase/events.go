package usecase

import (
	"context"
	"fmt"
	"time"

	"BrentShift/internal/domain/models"
	domrepo "BrentShift/internal/domain/repository"
	"BrentShift/internal/loader"
	pkgcache "BrentShift/pkg/cache"
	applogger "BrentShift/pkg/logger"
)

const (
	cacheKeyChangePoints = "api:change_points"
	cacheKeyPrices       = "api:historical_prices"
)

// EventsUseCase serves the two dashboard reads: the detected-events table
// and the raw validated price series. Responses are cached with a short
// TTL since both only change when a detection run completes.
type EventsUseCase struct {
	store      domrepo.EventStore
	loader     *loader.Loader
	cache      pkgcache.Service
	cacheTTL   time.Duration
	pricesPath string
	log        *applogger.Logger
}

func NewEventsUseCase(
	store domrepo.EventStore,
	ld *loader.Loader,
	cache pkgcache.Service,
	cacheTTL time.Duration,
	pricesPath string,
	log *applogger.Logger,
) *EventsUseCase {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &EventsUseCase{
		store:      store,
		loader:     ld,
		cache:      cache,
		cacheTTL:   cacheTTL,
		pricesPath: pricesPath,
		log:        log,
	}
}

// ChangePoints returns the canonical detected-events table.
func (uc *EventsUseCase) ChangePoints(ctx context.Context) ([]models.EventRecord, error) {
	if uc.cache != nil {
		var cached []models.EventRecord
		if err := uc.cache.Get(ctx, cacheKeyChangePoints, &cached); err == nil {
			return cached, nil
		}
	}

	records, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKeyChangePoints, records, uc.cacheTTL); err != nil && uc.log != nil {
			uc.log.Warn("cache set failed", applogger.Error(err))
		}
	}
	return records, nil
}

// HistoricalPrices returns the validated raw price series for plotting.
func (uc *EventsUseCase) HistoricalPrices(ctx context.Context) ([]models.PriceRecord, error) {
	if uc.cache != nil {
		var cached []models.PriceRecord
		if err := uc.cache.Get(ctx, cacheKeyPrices, &cached); err == nil {
			return cached, nil
		}
	}

	series, _, err := uc.loader.Load(uc.pricesPath)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	records := series.Records()
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKeyPrices, records, uc.cacheTTL); err != nil && uc.log != nil {
			uc.log.Warn("cache set failed", applogger.Error(err))
		}
	}
	return records, nil
}

// Invalidate drops cached responses after a detection run.
func (uc *EventsUseCase) Invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, cacheKeyChangePoints, cacheKeyPrices)
}
