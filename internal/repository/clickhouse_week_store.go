package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
	pkgch "StalkPull/pkg/clickhouse"
	applogger "StalkPull/pkg/logger"
)

// ClickHouseWeekStore implements repository.WeekStore backed by ClickHouse.
//
// Reports are append-only; the latest report for a slot wins on read via
// argMax. The weeks table is a ReplacingMergeTree projection kept for cheap
// per-island listings.
type ClickHouseWeekStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

// NewClickHouseWeekStore creates a week store on an existing client.
func NewClickHouseWeekStore(ch *pkgch.Client) *ClickHouseWeekStore {
	return &ClickHouseWeekStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *ClickHouseWeekStore) SetLogger(l *applogger.Logger) { s.l = l }

func schemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS stalkpull`,
		`CREATE TABLE IF NOT EXISTS stalkpull.reports (
			id          String,
			island      LowCardinality(String),
			week_start  Date,
			half_day    LowCardinality(String),
			price       UInt16,
			last_week   LowCardinality(String),
			reported_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (island, week_start, half_day, reported_at)`,
		`CREATE TABLE IF NOT EXISTS stalkpull.weeks (
			island      LowCardinality(String),
			week_start  Date,
			base_price  UInt16,
			last_week   LowCardinality(String),
			updated_at  DateTime
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (island, week_start)`,
		`CREATE TABLE IF NOT EXISTS stalkpull.predictions (
			island      LowCardinality(String),
			week_start  Date,
			top_pattern LowCardinality(String),
			chances     String,
			computed_at DateTime
		) ENGINE = ReplacingMergeTree(computed_at)
		ORDER BY (island, week_start)`,
	}
}

func (s *ClickHouseWeekStore) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, schemaStatements()); err != nil {
		return err
	}
	if s.l != nil {
		s.l.Info("clickhouse week store ready")
	}
	return nil
}

func (s *ClickHouseWeekStore) SaveReport(ctx context.Context, r *models.PriceReport) error {
	const insertReport = `INSERT INTO stalkpull.reports
		(id, island, week_start, half_day, price, last_week, reported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, insertReport,
		r.ID, r.Island, r.WeekStart, r.HalfDay, r.Price, r.LastWeek, r.ReportedAt,
	); err != nil {
		s.logError("save report", r.Island, err)
		return fmt.Errorf("save report: %w", err)
	}

	if r.IsBase() {
		const upsertWeek = `INSERT INTO stalkpull.weeks
			(island, week_start, base_price, last_week, updated_at)
			VALUES (?, ?, ?, ?, ?)`
		if _, err := s.db.ExecContext(ctx, upsertWeek,
			r.Island, r.WeekStart, r.Price, r.LastWeek, r.ReportedAt,
		); err != nil {
			s.logError("upsert week", r.Island, err)
			return fmt.Errorf("upsert week: %w", err)
		}
		return nil
	}

	// Carry the existing meta forward so the newest weeks row, which wins
	// on merge, still holds the base price. Aggregates over an empty set
	// yield zero values, which is exactly "base not reported yet".
	const touchWeek = `INSERT INTO stalkpull.weeks
		(island, week_start, base_price, last_week, updated_at)
		SELECT ?, ?, argMax(base_price, updated_at), argMax(last_week, updated_at), ?
		FROM stalkpull.weeks
		WHERE island = ? AND week_start = ?`
	if _, err := s.db.ExecContext(ctx, touchWeek,
		r.Island, r.WeekStart, r.ReportedAt, r.Island, r.WeekStart,
	); err != nil {
		s.logError("touch week", r.Island, err)
		return fmt.Errorf("touch week: %w", err)
	}
	return nil
}

func (s *ClickHouseWeekStore) GetWeek(ctx context.Context, island string, weekStart time.Time) (*models.PriceWeek, error) {
	const q = `SELECT half_day,
			argMax(price, reported_at)     AS price,
			argMax(last_week, reported_at) AS last_week,
			max(reported_at)               AS updated_at
		FROM stalkpull.reports
		WHERE island = ? AND week_start = ?
		GROUP BY half_day`

	rows, err := s.db.QueryContext(ctx, q, island, weekStart)
	if err != nil {
		s.logError("get week", island, err)
		return nil, fmt.Errorf("get week: %w", err)
	}
	defer rows.Close()

	week := &models.PriceWeek{Island: island, WeekStart: weekStart}
	found := false
	for rows.Next() {
		var (
			slot, lastWeek string
			price          int
			updated        time.Time
		)
		if err := rows.Scan(&slot, &price, &lastWeek, &updated); err != nil {
			s.logError("get week scan", island, err)
			return nil, fmt.Errorf("scan week: %w", err)
		}
		found = true
		if updated.After(week.UpdatedAt) {
			week.UpdatedAt = updated
		}
		if slot == "" {
			week.BasePrice = price
			week.LastWeek = lastWeek
			continue
		}
		if idx := domrepo.HalfDay(slot).Index(); idx >= 0 {
			week.Prices[idx] = price
		}
	}
	if err := rows.Err(); err != nil {
		s.logError("get week rows", island, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if !found {
		return nil, domrepo.ErrWeekNotFound
	}
	return week, nil
}

func (s *ClickHouseWeekStore) LatestWeeks(ctx context.Context, island string, limit int) ([]*models.PriceWeek, error) {
	const metaQ = `SELECT week_start,
			argMax(base_price, updated_at) AS base_price,
			argMax(last_week, updated_at)  AS last_week,
			max(updated_at)                AS updated_at
		FROM stalkpull.weeks
		WHERE island = ?
		GROUP BY week_start
		ORDER BY week_start DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, metaQ, island, limit)
	if err != nil {
		s.logError("latest weeks", island, err)
		return nil, fmt.Errorf("latest weeks: %w", err)
	}
	defer rows.Close()

	weeks := make([]*models.PriceWeek, 0, limit)
	index := make(map[string]*models.PriceWeek, limit)
	for rows.Next() {
		w := &models.PriceWeek{Island: island}
		if err := rows.Scan(&w.WeekStart, &w.BasePrice, &w.LastWeek, &w.UpdatedAt); err != nil {
			s.logError("latest weeks scan", island, err)
			return nil, fmt.Errorf("scan week meta: %w", err)
		}
		weeks = append(weeks, w)
		index[w.WeekStart.Format("2006-01-02")] = w
	}
	if err := rows.Err(); err != nil {
		s.logError("latest weeks rows", island, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(weeks) == 0 {
		return weeks, nil
	}

	// weeks holds the latest N, so everything newer than its oldest entry
	// belongs to one of them.
	oldest := weeks[len(weeks)-1].WeekStart
	const pricesQ = `SELECT week_start, half_day, argMax(price, reported_at) AS price
		FROM stalkpull.reports
		WHERE island = ? AND week_start >= ? AND half_day != ''
		GROUP BY week_start, half_day`

	priceRows, err := s.db.QueryContext(ctx, pricesQ, island, oldest)
	if err != nil {
		s.logError("latest weeks prices", island, err)
		return nil, fmt.Errorf("latest week prices: %w", err)
	}
	defer priceRows.Close()

	for priceRows.Next() {
		var (
			weekStart time.Time
			slot      string
			price     int
		)
		if err := priceRows.Scan(&weekStart, &slot, &price); err != nil {
			s.logError("latest weeks prices scan", island, err)
			return nil, fmt.Errorf("scan week price: %w", err)
		}
		w, ok := index[weekStart.Format("2006-01-02")]
		if !ok {
			continue
		}
		if idx := domrepo.HalfDay(slot).Index(); idx >= 0 {
			w.Prices[idx] = price
		}
	}
	if err := priceRows.Err(); err != nil {
		s.logError("latest weeks prices rows", island, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return weeks, nil
}

func (s *ClickHouseWeekStore) SavePrediction(ctx context.Context, p *models.Prediction) error {
	chances, err := json.Marshal(p.Chances)
	if err != nil {
		return fmt.Errorf("marshal chances: %w", err)
	}

	const q = `INSERT INTO stalkpull.predictions
		(island, week_start, top_pattern, chances, computed_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		p.Island, p.WeekStart, p.TopPattern, string(chances), p.ComputedAt,
	); err != nil {
		s.logError("save prediction", p.Island, err)
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (s *ClickHouseWeekStore) LatestPrediction(ctx context.Context, island string, weekStart time.Time) (*models.Prediction, error) {
	const q = `SELECT top_pattern, chances, computed_at
		FROM stalkpull.predictions
		WHERE island = ? AND week_start = ?
		ORDER BY computed_at DESC
		LIMIT 1`

	var (
		top        string
		rawChances string
		computedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, q, island, weekStart).Scan(&top, &rawChances, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrWeekNotFound
	}
	if err != nil {
		s.logError("latest prediction", island, err)
		return nil, fmt.Errorf("latest prediction: %w", err)
	}

	var chances []models.PatternChance
	if err := json.Unmarshal([]byte(rawChances), &chances); err != nil {
		return nil, fmt.Errorf("unmarshal chances: %w", err)
	}

	return &models.Prediction{
		Island:     island,
		WeekStart:  weekStart,
		Chances:    chances,
		TopPattern: top,
		ComputedAt: computedAt,
	}, nil
}

func (s *ClickHouseWeekStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the shared client.
func (s *ClickHouseWeekStore) Close() error {
	return nil
}

func (s *ClickHouseWeekStore) logError(op, island string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op,
		applogger.String("island", island),
		applogger.Error(err),
	)
}
