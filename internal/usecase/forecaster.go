package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
	"StalkPull/internal/forecast"
	"StalkPull/pkg/cache"
	applogger "StalkPull/pkg/logger"
	"StalkPull/pkg/util"
)

// Sell prices above the large-spike ceiling (6x the highest base price)
// never occur in the game.
const maxSellPrice = 660

const (
	defaultWeeksLimit = 8
	maxWeeksLimit     = 52
)

// ErrNoBasePrice means a week has half-day reports but no Sunday buying
// price yet, so there is nothing to condition the pattern bands on.
var ErrNoBasePrice = errors.New("usecase: base price not reported yet")

// Forecaster orchestrates the pattern engine against storage, the cache,
// the prediction topic, and live subscribers.
type Forecaster struct {
	engine   *forecast.Engine
	store    domrepo.WeekStore
	cache    cache.Service
	pub      domrepo.Publisher
	notifier domrepo.Notifier
	metrics  domrepo.Metrics
	cacheTTL time.Duration
	log      *applogger.Logger
	now      func() time.Time
}

func NewForecaster(
	engine *forecast.Engine,
	store domrepo.WeekStore,
	cacheSvc cache.Service,
	pub domrepo.Publisher,
	notifier domrepo.Notifier,
	metrics domrepo.Metrics,
	cacheTTL time.Duration,
) *Forecaster {
	return &Forecaster{
		engine:   engine,
		store:    store,
		cache:    cacheSvc,
		pub:      pub,
		notifier: notifier,
		metrics:  metrics,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// SetLogger injects a structured logger.
func (f *Forecaster) SetLogger(l *applogger.Logger) { f.log = l }

// PredictParams is one stateless forecast request. Prices holds up to 12
// half-day sell prices, oldest first; zero marks a slot nobody checked.
type PredictParams struct {
	BasePrice int
	Prices    []int
	LastWeek  string
}

// Predict computes a posterior without touching storage. Identical requests
// within the cache TTL are answered from the cache.
func (f *Forecaster) Predict(ctx context.Context, p PredictParams) (*models.Prediction, error) {
	prev, err := forecast.ParsePattern(p.LastWeek)
	if err != nil {
		return nil, err
	}
	prices := trimTrailingZeros(p.Prices)

	key := predictKey(p.BasePrice, prices, prev)
	var cached models.Prediction
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		f.metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	f.metrics.RecordCacheLookup(false)

	pred, err := f.compute(p.BasePrice, prices, prev, "predict")
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, pred, f.cacheTTL); err != nil {
		f.logWarn("cache predict", err)
	}
	return pred, nil
}

// SubmitReport stores one price report, recomputes the island's posterior,
// persists it, publishes it, and pushes it to live subscribers.
func (f *Forecaster) SubmitReport(ctx context.Context, r *models.PriceReport) (*models.Prediction, error) {
	if err := validateReport(r); err != nil {
		return nil, err
	}

	now := f.now().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ReportedAt.IsZero() {
		r.ReportedAt = now
	}
	if r.WeekStart.IsZero() {
		r.WeekStart = util.WeekStart(now)
	} else {
		r.WeekStart = util.WeekStart(r.WeekStart)
	}

	if err := f.store.SaveReport(ctx, r); err != nil {
		f.metrics.RecordError("save_report")
		return nil, fmt.Errorf("save report: %w", err)
	}
	f.metrics.RecordReport(reportSlot(r))
	f.invalidateIsland(ctx, r.Island)

	week, err := f.store.GetWeek(ctx, r.Island, r.WeekStart)
	if err != nil {
		if !errors.Is(err, domrepo.ErrWeekNotFound) {
			f.metrics.RecordError("get_week")
			return nil, fmt.Errorf("load week: %w", err)
		}
		week = &models.PriceWeek{Island: r.Island, WeekStart: r.WeekStart}
	}
	// Overlay the report so the recompute sees it even when the storage
	// read races the insert.
	applyReport(week, r)

	pred, err := f.forecastStored(week, "report")
	if err != nil {
		return nil, err
	}
	if err := f.store.SavePrediction(ctx, pred); err != nil {
		f.metrics.RecordError("save_prediction")
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	if err := f.pub.PublishPrediction(ctx, predictionEvent(pred)); err != nil {
		// The report and prediction are already stored; consumers catch
		// up on the next publish.
		f.metrics.RecordError("publish")
		f.logWarn("publish prediction", err)
	}
	f.notifier.Broadcast(r.Island, pred)
	return pred, nil
}

// WeekView pairs a stored week with its latest prediction. Prediction is
// nil when the week has reports but no computable posterior yet.
type WeekView struct {
	Week       *models.PriceWeek  `json:"week"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
}

// GetWeek returns an island's stored week plus its latest prediction,
// computing and persisting the prediction when only raw reports exist.
func (f *Forecaster) GetWeek(ctx context.Context, island string, weekStart time.Time) (*WeekView, error) {
	weekStart = util.WeekStart(weekStart)

	key := cache.GenerateKeyWithParams("weeks", island, "view", util.FormatWeekStart(weekStart))
	var cached WeekView
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		f.metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	f.metrics.RecordCacheLookup(false)

	week, err := f.store.GetWeek(ctx, island, weekStart)
	if err != nil {
		if errors.Is(err, domrepo.ErrWeekNotFound) {
			return nil, err
		}
		f.metrics.RecordError("get_week")
		return nil, fmt.Errorf("load week: %w", err)
	}

	view := &WeekView{Week: week}
	pred, err := f.store.LatestPrediction(ctx, island, weekStart)
	switch {
	case err == nil:
		view.Prediction = pred
	case errors.Is(err, domrepo.ErrWeekNotFound):
		pred, cerr := f.forecastStored(week, "week")
		switch {
		case cerr == nil:
			view.Prediction = pred
			if serr := f.store.SavePrediction(ctx, pred); serr != nil {
				f.metrics.RecordError("save_prediction")
				f.logWarn("save prediction", serr)
			}
		case errors.Is(cerr, ErrNoBasePrice), errors.Is(cerr, forecast.ErrInconsistent):
			// The stored week stands on its own; the posterior is
			// simply absent.
		default:
			return nil, cerr
		}
	default:
		f.metrics.RecordError("get_prediction")
		return nil, fmt.Errorf("load prediction: %w", err)
	}

	if err := f.cache.Set(ctx, key, view, f.cacheTTL); err != nil {
		f.logWarn("cache week view", err)
	}
	return view, nil
}

// LatestWeeks lists an island's most recent weeks, newest first.
func (f *Forecaster) LatestWeeks(ctx context.Context, island string, limit int) ([]*models.PriceWeek, error) {
	if limit <= 0 {
		limit = defaultWeeksLimit
	}
	if limit > maxWeeksLimit {
		limit = maxWeeksLimit
	}

	key := cache.GenerateKeyWithParams("weeks", island, "list", limit)
	var cached []*models.PriceWeek
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		f.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	f.metrics.RecordCacheLookup(false)

	weeks, err := f.store.LatestWeeks(ctx, island, limit)
	if err != nil {
		f.metrics.RecordError("latest_weeks")
		return nil, fmt.Errorf("latest weeks: %w", err)
	}
	if err := f.cache.Set(ctx, key, weeks, f.cacheTTL); err != nil {
		f.logWarn("cache weeks", err)
	}
	return weeks, nil
}

// Health reports whether the backing store answers.
func (f *Forecaster) Health(ctx context.Context) error {
	return f.store.Health(ctx)
}

// Close releases the publisher and store.
func (f *Forecaster) Close() {
	if f.pub != nil {
		_ = f.pub.Close()
	}
	if f.store != nil {
		_ = f.store.Close()
	}
}

// forecastStored computes a posterior for a stored week and stamps it with
// the week's identity.
func (f *Forecaster) forecastStored(week *models.PriceWeek, source string) (*models.Prediction, error) {
	if week.BasePrice == 0 {
		return nil, fmt.Errorf("%w: island %s week %s", ErrNoBasePrice, week.Island, util.FormatWeekStart(week.WeekStart))
	}
	prev, err := forecast.ParsePattern(week.LastWeek)
	if err != nil {
		return nil, err
	}
	pred, err := f.compute(week.BasePrice, week.TrimmedPrices(), prev, source)
	if err != nil {
		return nil, err
	}
	pred.Island = week.Island
	pred.WeekStart = week.WeekStart
	return pred, nil
}

func (f *Forecaster) compute(base int, prices []int, prev forecast.Pattern, source string) (*models.Prediction, error) {
	start := time.Now()
	dist, err := f.engine.Compute(forecast.Request{
		BasePrice: base,
		Prices:    observations(prices),
		LastWeek:  prev,
	})
	if err != nil {
		kind := "compute"
		switch {
		case errors.Is(err, forecast.ErrInvalidInput):
			kind = "invalid_input"
		case errors.Is(err, forecast.ErrInconsistent):
			kind = "inconsistent"
		}
		f.metrics.RecordError(kind)
		return nil, err
	}

	pred := distToPrediction(dist, f.now().UTC())
	f.metrics.RecordForecast(source, pred.TopPattern, time.Since(start).Seconds())
	return pred, nil
}

func (f *Forecaster) invalidateIsland(ctx context.Context, island string) {
	pattern := cache.BuildPattern(cache.GenerateKey("weeks", island) + ":")
	if err := f.cache.DeleteByPattern(ctx, pattern); err != nil {
		f.logWarn("invalidate island cache", err)
	}
}

func (f *Forecaster) logWarn(msg string, err error) {
	if f.log == nil {
		return
	}
	f.log.Warn(msg, applogger.Error(err))
}

func validateReport(r *models.PriceReport) error {
	if r == nil {
		return fmt.Errorf("%w: nil report", forecast.ErrInvalidInput)
	}
	if r.Island == "" {
		return fmt.Errorf("%w: island required", forecast.ErrInvalidInput)
	}
	if r.HalfDay != "" {
		hd, ok := domrepo.NormalizeHalfDay(r.HalfDay)
		if !ok {
			return fmt.Errorf("%w: half day %q", forecast.ErrInvalidInput, r.HalfDay)
		}
		r.HalfDay = string(hd)
	}
	if r.IsBase() {
		if r.Price < forecast.MinBasePrice || r.Price > forecast.MaxBasePrice {
			return fmt.Errorf("%w: base price %d outside %d..%d",
				forecast.ErrInvalidInput, r.Price, forecast.MinBasePrice, forecast.MaxBasePrice)
		}
	} else if r.Price < 1 || r.Price > maxSellPrice {
		return fmt.Errorf("%w: price %d outside 1..%d", forecast.ErrInvalidInput, r.Price, maxSellPrice)
	}
	if _, err := forecast.ParsePattern(r.LastWeek); err != nil {
		return err
	}
	return nil
}

// applyReport overlays a fresh report on the week it belongs to.
func applyReport(w *models.PriceWeek, r *models.PriceReport) {
	if r.ReportedAt.After(w.UpdatedAt) {
		w.UpdatedAt = r.ReportedAt
	}
	if r.IsBase() {
		w.BasePrice = r.Price
		if r.LastWeek != "" {
			w.LastWeek = r.LastWeek
		}
		return
	}
	if idx := domrepo.HalfDay(r.HalfDay).Index(); idx >= 0 {
		w.Prices[idx] = r.Price
	}
}

func reportSlot(r *models.PriceReport) string {
	if r.IsBase() {
		return "base"
	}
	return r.HalfDay
}

func observations(prices []int) []forecast.Observation {
	obs := make([]forecast.Observation, len(prices))
	for i, p := range prices {
		if p > 0 {
			obs[i] = forecast.Price(p)
		}
	}
	return obs
}

func trimTrailingZeros(prices []int) []int {
	last := -1
	for i, p := range prices {
		if p > 0 {
			last = i
		}
	}
	return prices[:last+1]
}

func distToPrediction(d forecast.Distribution, at time.Time) *models.Prediction {
	chances := make([]models.PatternChance, 0, len(d))
	for _, c := range d {
		chances = append(chances, models.PatternChance{
			Pattern:     c.Pattern.String(),
			Probability: c.Probability,
		})
	}
	return &models.Prediction{
		Chances:    chances,
		TopPattern: d.Top().Pattern.String(),
		ComputedAt: at,
	}
}

func predictKey(base int, prices []int, prev forecast.Pattern) string {
	raw := fmt.Sprintf("%d|%v|%s", base, prices, prev)
	return cache.GenerateKey("predict", cache.HashKey(raw))
}

func predictionEvent(p *models.Prediction) *models.PredictionEvent {
	return &models.PredictionEvent{
		Island:     p.Island,
		WeekStart:  util.FormatWeekStart(p.WeekStart),
		TopPattern: p.TopPattern,
		Chances:    p.Chances,
		ComputedAt: p.ComputedAt.Unix(),
	}
}
