package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
	"StalkPull/internal/forecast"
	"StalkPull/pkg/cache"
	pkgkafka "StalkPull/pkg/kafka"
	"StalkPull/pkg/util"
)

type fakeStore struct {
	weeks       map[string]*models.PriceWeek
	predictions map[string]*models.Prediction
	reports     []*models.PriceReport
	latest      []*models.PriceWeek
	lastLimit   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		weeks:       map[string]*models.PriceWeek{},
		predictions: map[string]*models.Prediction{},
	}
}

func wkey(island string, ws time.Time) string {
	return island + "|" + util.FormatWeekStart(ws)
}

func (s *fakeStore) Init(ctx context.Context) error { return nil }

func (s *fakeStore) SaveReport(ctx context.Context, r *models.PriceReport) error {
	s.reports = append(s.reports, r)
	k := wkey(r.Island, r.WeekStart)
	w, ok := s.weeks[k]
	if !ok {
		w = &models.PriceWeek{Island: r.Island, WeekStart: r.WeekStart}
		s.weeks[k] = w
	}
	if r.IsBase() {
		w.BasePrice = r.Price
		if r.LastWeek != "" {
			w.LastWeek = r.LastWeek
		}
	} else if idx := domrepo.HalfDay(r.HalfDay).Index(); idx >= 0 {
		w.Prices[idx] = r.Price
	}
	w.UpdatedAt = r.ReportedAt
	return nil
}

func (s *fakeStore) GetWeek(ctx context.Context, island string, ws time.Time) (*models.PriceWeek, error) {
	w, ok := s.weeks[wkey(island, ws)]
	if !ok {
		return nil, domrepo.ErrWeekNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *fakeStore) LatestWeeks(ctx context.Context, island string, limit int) ([]*models.PriceWeek, error) {
	s.lastLimit = limit
	return s.latest, nil
}

func (s *fakeStore) SavePrediction(ctx context.Context, p *models.Prediction) error {
	s.predictions[wkey(p.Island, p.WeekStart)] = p
	return nil
}

func (s *fakeStore) LatestPrediction(ctx context.Context, island string, ws time.Time) (*models.Prediction, error) {
	p, ok := s.predictions[wkey(island, ws)]
	if !ok {
		return nil, domrepo.ErrWeekNotFound
	}
	return p, nil
}

func (s *fakeStore) Health(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                     { return nil }

type fakePublisher struct {
	events []*models.PredictionEvent
	err    error
}

func (p *fakePublisher) PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeNotifier struct{ islands []string }

func (n *fakeNotifier) Broadcast(island string, _ *models.Prediction) {
	n.islands = append(n.islands, island)
}

type fakeMetrics struct {
	forecasts int
	reports   int
	failures  int
	hits      int
	misses    int
}

func (m *fakeMetrics) RecordForecast(string, string, float64) { m.forecasts++ }
func (m *fakeMetrics) RecordReport(string)                    { m.reports++ }
func (m *fakeMetrics) RecordError(string)                     { m.failures++ }
func (m *fakeMetrics) SetLiveClients(int)                     {}

func (m *fakeMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

type forecasterFixture struct {
	f        *Forecaster
	store    *fakeStore
	pub      *fakePublisher
	notifier *fakeNotifier
	metrics  *fakeMetrics
}

func newFixture(t *testing.T) *forecasterFixture {
	t.Helper()
	fx := &forecasterFixture{
		store:    newFakeStore(),
		pub:      &fakePublisher{},
		notifier: &fakeNotifier{},
		metrics:  &fakeMetrics{},
	}
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	fx.f = NewForecaster(forecast.New(), fx.store, mem, fx.pub, fx.notifier, fx.metrics, time.Minute)
	return fx
}

func TestPredictComputesAndCaches(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	params := PredictParams{BasePrice: 95, Prices: []int{102, 127}, LastWeek: "largespike"}

	first, err := fx.f.Predict(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "random", first.TopPattern)
	assert.Greater(t, first.Chance("random"), 0.85)

	second, err := fx.f.Predict(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first.Chances, second.Chances)

	assert.Equal(t, 1, fx.metrics.hits)
	assert.Equal(t, 1, fx.metrics.misses)
	assert.Equal(t, 1, fx.metrics.forecasts)
}

func TestPredictNormalizesEquivalentRequests(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.f.Predict(ctx, PredictParams{BasePrice: 95, Prices: []int{102, 127}, LastWeek: "large_spike"})
	require.NoError(t, err)

	// Trailing unreported slots and pattern spelling do not change the key.
	_, err = fx.f.Predict(ctx, PredictParams{BasePrice: 95, Prices: []int{102, 127, 0, 0}, LastWeek: "LargeSpike"})
	require.NoError(t, err)

	assert.Equal(t, 1, fx.metrics.hits)
	assert.Equal(t, 1, fx.metrics.forecasts)
}

func TestPredictRejectsUnknownPattern(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.f.Predict(context.Background(), PredictParams{BasePrice: 95, LastWeek: "sideways"})
	require.ErrorIs(t, err, forecast.ErrInvalidInput)
}

func TestSubmitReportStoresComputesAndPublishes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	pred, err := fx.f.SubmitReport(ctx, &models.PriceReport{
		Island:   "lativ",
		Price:    95,
		LastWeek: "largespike",
	})
	require.NoError(t, err)
	require.NotNil(t, pred)
	assert.Equal(t, "lativ", pred.Island)

	require.Len(t, fx.store.reports, 1)
	saved := fx.store.reports[0]
	assert.NotEmpty(t, saved.ID)
	assert.True(t, saved.IsBase())
	assert.Equal(t, time.Sunday, saved.WeekStart.Weekday())
	assert.False(t, saved.ReportedAt.IsZero())

	require.Len(t, fx.pub.events, 1)
	ev := fx.pub.events[0]
	assert.Equal(t, "lativ", ev.Island)
	assert.Equal(t, util.FormatWeekStart(saved.WeekStart), ev.WeekStart)
	assert.Equal(t, pred.TopPattern, ev.TopPattern)

	assert.Equal(t, []string{"lativ"}, fx.notifier.islands)
	assert.Equal(t, 1, fx.metrics.reports)

	stored, ok := fx.store.predictions[wkey("lativ", saved.WeekStart)]
	require.True(t, ok)
	assert.Equal(t, pred.TopPattern, stored.TopPattern)

	sum := 0.0
	for _, c := range pred.Chances {
		sum += c.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSubmitReportHalfDayBeforeBase(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.f.SubmitReport(context.Background(), &models.PriceReport{
		Island:  "lativ",
		HalfDay: "mon-am",
		Price:   87,
	})
	require.ErrorIs(t, err, ErrNoBasePrice)

	// The report itself is kept; only the posterior is deferred.
	assert.Len(t, fx.store.reports, 1)
	assert.Empty(t, fx.pub.events)
}

func TestSubmitReportRejectsBadInput(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		report *models.PriceReport
	}{
		{"missing island", &models.PriceReport{Price: 95}},
		{"base out of range", &models.PriceReport{Island: "lativ", Price: 50}},
		{"bad half day", &models.PriceReport{Island: "lativ", HalfDay: "sun-pm", Price: 95}},
		{"sell price too high", &models.PriceReport{Island: "lativ", HalfDay: "mon-am", Price: 900}},
		{"bad last week", &models.PriceReport{Island: "lativ", Price: 95, LastWeek: "sideways"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.f.SubmitReport(ctx, tc.report)
			require.ErrorIs(t, err, forecast.ErrInvalidInput)
		})
	}
	assert.Empty(t, fx.store.reports)
}

func TestSubmitReportSurvivesPublishFailure(t *testing.T) {
	fx := newFixture(t)
	fx.pub.err = errors.New("broker down")

	pred, err := fx.f.SubmitReport(context.Background(), &models.PriceReport{
		Island: "lativ",
		Price:  100,
	})
	require.NoError(t, err)
	assert.NotNil(t, pred)
	assert.Equal(t, []string{"lativ"}, fx.notifier.islands)
}

func TestGetWeekReturnsStoredPrediction(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ws := util.WeekStart(time.Now().UTC())

	fx.store.weeks[wkey("lativ", ws)] = &models.PriceWeek{
		Island: "lativ", WeekStart: ws, BasePrice: 95,
	}
	fx.store.predictions[wkey("lativ", ws)] = &models.Prediction{
		Island: "lativ", WeekStart: ws, TopPattern: "random",
	}

	view, err := fx.f.GetWeek(ctx, "lativ", ws)
	require.NoError(t, err)
	require.NotNil(t, view.Prediction)
	assert.Equal(t, "random", view.Prediction.TopPattern)
	assert.Equal(t, 95, view.Week.BasePrice)
	assert.Zero(t, fx.metrics.forecasts, "stored prediction means no recompute")
}

func TestGetWeekComputesWhenPredictionMissing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ws := util.WeekStart(time.Now().UTC())

	week := &models.PriceWeek{Island: "lativ", WeekStart: ws, BasePrice: 95, LastWeek: "largespike"}
	week.Prices[0], week.Prices[1] = 102, 127
	fx.store.weeks[wkey("lativ", ws)] = week

	view, err := fx.f.GetWeek(ctx, "lativ", ws)
	require.NoError(t, err)
	require.NotNil(t, view.Prediction)
	assert.Equal(t, "random", view.Prediction.TopPattern)

	_, saved := fx.store.predictions[wkey("lativ", ws)]
	assert.True(t, saved, "computed prediction is persisted")
}

func TestGetWeekWithoutBaseOmitsPrediction(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ws := util.WeekStart(time.Now().UTC())

	week := &models.PriceWeek{Island: "lativ", WeekStart: ws}
	week.Prices[0] = 87
	fx.store.weeks[wkey("lativ", ws)] = week

	view, err := fx.f.GetWeek(ctx, "lativ", ws)
	require.NoError(t, err)
	assert.Nil(t, view.Prediction)
	assert.Equal(t, 87, view.Week.Prices[0])
}

func TestGetWeekNotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.f.GetWeek(context.Background(), "nowhere", time.Now())
	require.ErrorIs(t, err, domrepo.ErrWeekNotFound)
}

func TestLatestWeeksClampsLimit(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.f.LatestWeeks(ctx, "lativ", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultWeeksLimit, fx.store.lastLimit)

	_, err = fx.f.LatestWeeks(ctx, "lativ", 5000)
	require.NoError(t, err)
	assert.Equal(t, maxWeeksLimit, fx.store.lastLimit)
}

func TestSubmitReportInvalidatesWeekCache(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ws := util.WeekStart(time.Now().UTC())

	_, err := fx.f.SubmitReport(ctx, &models.PriceReport{
		Island: "lativ", WeekStart: ws, Price: 95, LastWeek: "largespike",
	})
	require.NoError(t, err)

	view, err := fx.f.GetWeek(ctx, "lativ", ws)
	require.NoError(t, err)
	require.NotNil(t, view.Prediction)
	before := view.Prediction.Chance("random")

	_, err = fx.f.SubmitReport(ctx, &models.PriceReport{
		Island: "lativ", WeekStart: ws, HalfDay: "mon-am", Price: 102,
	})
	require.NoError(t, err)

	view, err = fx.f.GetWeek(ctx, "lativ", ws)
	require.NoError(t, err)
	assert.Equal(t, 102, view.Week.Prices[0], "cached view replaced after new report")
	assert.NotEqual(t, before, view.Prediction.Chance("random"))
}

func TestReportIngestHandle(t *testing.T) {
	fx := newFixture(t)
	ingest := NewReportIngest("stalk.reports", fx.f, fx.metrics)
	ctx := context.Background()

	assert.Equal(t, "stalk.reports", ingest.Topic())

	body, err := json.Marshal(models.ReportEvent{
		Island: "lativ", WeekStart: "2024-10-06", Price: 95, LastWeek: "largespike",
	})
	require.NoError(t, err)
	require.NoError(t, ingest.Handle(ctx, body))
	require.Len(t, fx.store.reports, 1)
	assert.Equal(t, "2024-10-06", util.FormatWeekStart(fx.store.reports[0].WeekStart))

	err = ingest.Handle(ctx, []byte("{not json"))
	require.ErrorIs(t, err, pkgkafka.ErrNonRetryable)

	err = ingest.Handle(ctx, []byte(`{"island":"lativ","week_start":"someday","price":95}`))
	require.ErrorIs(t, err, pkgkafka.ErrNonRetryable)

	// Base price out of range never reaches the store and is not retried.
	body, err = json.Marshal(models.ReportEvent{Island: "lativ", Price: 20})
	require.NoError(t, err)
	err = ingest.Handle(ctx, body)
	require.ErrorIs(t, err, pkgkafka.ErrNonRetryable)
	assert.Len(t, fx.store.reports, 1)

	// A half-day report before any base price is stored without error.
	body, err = json.Marshal(models.ReportEvent{Island: "fresh", HalfDay: "mon-am", Price: 87})
	require.NoError(t, err)
	require.NoError(t, ingest.Handle(ctx, body))
	assert.Len(t, fx.store.reports, 2)
}
