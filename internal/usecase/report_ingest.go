package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
	"StalkPull/internal/forecast"
	pkgkafka "StalkPull/pkg/kafka"
	"StalkPull/pkg/util"
)

// ReportIngest consumes price reports from Kafka and feeds them through the
// same submit path as the HTTP API. Malformed or rejected events are marked
// non-retryable so the consumer dead-letters them instead of spinning.
type ReportIngest struct {
	topic      string
	forecaster *Forecaster
	metrics    domrepo.Metrics
}

func NewReportIngest(topic string, forecaster *Forecaster, metrics domrepo.Metrics) *ReportIngest {
	return &ReportIngest{topic: topic, forecaster: forecaster, metrics: metrics}
}

func (h *ReportIngest) Topic() string { return h.topic }

func (h *ReportIngest) Handle(ctx context.Context, b []byte) error {
	var ev models.ReportEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("%w: unmarshal report: %w", pkgkafka.ErrNonRetryable, err)
	}

	report := &models.PriceReport{
		ID:       ev.ReportID,
		Island:   ev.Island,
		HalfDay:  ev.HalfDay,
		Price:    ev.Price,
		LastWeek: ev.LastWeek,
	}
	if ev.WeekStart != "" {
		ws, err := util.ParseWeekStart(ev.WeekStart)
		if err != nil {
			h.metrics.RecordError("consumer_week_start")
			return fmt.Errorf("%w: week_start: %w", pkgkafka.ErrNonRetryable, err)
		}
		report.WeekStart = ws
	}

	_, err := h.forecaster.SubmitReport(ctx, report)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoBasePrice):
		// The report is stored; the posterior arrives once a base
		// price does.
		return nil
	case errors.Is(err, forecast.ErrInvalidInput), errors.Is(err, forecast.ErrInconsistent):
		return fmt.Errorf("%w: %w", pkgkafka.ErrNonRetryable, err)
	default:
		return err
	}
}

var _ pkgkafka.MessageHandler = (*ReportIngest)(nil)
