package api

import (
	"errors"

	"BrentShift/internal/domain/models"
	"BrentShift/internal/usecase"
	xhttp "BrentShift/pkg/http"
	applogger "BrentShift/pkg/logger"
	"BrentShift/pkg/queue"

	"github.com/labstack/echo/v4"
)

// EventsEchoHandler exposes the detected-events table and the historical
// price series to the dashboard, plus an optional detection trigger.
type EventsEchoHandler struct {
	logger  *applogger.Logger
	events  *usecase.EventsUseCase
	trigger queue.QueueService
}

func NewEventsEchoHandler(logger *applogger.Logger, events *usecase.EventsUseCase, trigger queue.QueueService) *EventsEchoHandler {
	return &EventsEchoHandler{logger: logger, events: events, trigger: trigger}
}

func (h *EventsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/change_points", h.ChangePoints)
	g.GET("/historical_prices", h.HistoricalPrices)
	g.POST("/detect", h.Detect)
}

// ChangePoints returns all detected change points as JSON records.
func (h *EventsEchoHandler) ChangePoints(c echo.Context) error {
	records, err := h.events.ChangePoints(c.Request().Context())
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("detected events not available yet"))
		}
		h.logger.Error("change points read error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if records == nil {
		records = []models.EventRecord{}
	}
	return xhttp.SuccessResponse(c, records)
}

type pricesRequest struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// HistoricalPrices returns the validated raw price series. An optional
// from/to range narrows the response; the dashboard still filters client
// side for chart zooming.
func (h *EventsEchoHandler) HistoricalPrices(c echo.Context) error {
	req := &pricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	records, err := h.events.HistoricalPrices(c.Request().Context())
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("historical prices file not found"))
		}
		h.logger.Error("historical prices read error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if req.From != "" || req.To != "" {
		filtered := records[:0:0]
		for _, r := range records {
			if req.From != "" && r.Date < req.From {
				continue
			}
			if req.To != "" && r.Date > req.To {
				continue
			}
			filtered = append(filtered, r)
		}
		records = filtered
	}
	return xhttp.SuccessResponse(c, records)
}

type detectRequest struct {
	Aggregate string `json:"aggregate" default:"weekly" validate:"oneof=none weekly monthly"`
}

// Detect enqueues a detection run. Requires the job queue to be enabled.
func (h *EventsEchoHandler) Detect(c echo.Context) error {
	if h.trigger == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_QUEUE_DISABLED", "", "detection queue is not enabled", 503))
	}

	req := &detectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.trigger.PublishMessage(c.Request().Context(), usecase.JobTypeDetect, usecase.DetectJob{Aggregate: req.Aggregate}); err != nil {
		h.logger.Error("enqueue detection error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued", "aggregate": req.Aggregate})
}

var _ xhttp.Handler = (*EventsEchoHandler)(nil)
