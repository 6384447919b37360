package repository

import (
	"context"
	"errors"
	"time"

	"StalkPull/internal/domain/models"
)

// ErrWeekNotFound is returned when an island has no stored week.
var ErrWeekNotFound = errors.New("repository: week not found")

// WeekStore persists weeks, price reports, and computed predictions.
type WeekStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	SaveReport(ctx context.Context, r *models.PriceReport) error
	GetWeek(ctx context.Context, island string, weekStart time.Time) (*models.PriceWeek, error)
	LatestWeeks(ctx context.Context, island string, limit int) ([]*models.PriceWeek, error)
	SavePrediction(ctx context.Context, p *models.Prediction) error
	LatestPrediction(ctx context.Context, island string, weekStart time.Time) (*models.Prediction, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Publisher emits prediction updates for downstream consumers.
type Publisher interface {
	PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error
	Close() error
}

// Notifier fans a fresh prediction out to live subscribers. Implementations
// must not block the caller.
type Notifier interface {
	Broadcast(island string, p *models.Prediction)
}

type Metrics interface {
	RecordForecast(source, top string, seconds float64)
	RecordReport(slot string)
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	SetLiveClients(n int)
}
