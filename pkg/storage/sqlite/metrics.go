package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const thresholdKey = "threshold"

type metricsRepo struct {
	db *Database
}

func NewMetricsRepository(db *Database) MetricsRepository {
	return &metricsRepo{db: db}
}

func (r *metricsRepo) Save(ctx context.Context, m RoundMetrics) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO round_metrics (round, accuracy, precision, recall, f1_score, pr_auc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(round) DO UPDATE SET
			accuracy = excluded.accuracy,
			precision = excluded.precision,
			recall = excluded.recall,
			f1_score = excluded.f1_score,
			pr_auc = excluded.pr_auc,
			updated_at = excluded.updated_at`,
		m.Round,
		m.Accuracy,
		m.Precision,
		m.Recall,
		m.F1,
		m.PRAUC,
		m.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *metricsRepo) List(ctx context.Context, offset, limit uint64) ([]RoundMetrics, uint64, error) {
	var total uint64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM round_metrics`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT round, accuracy, precision, recall, f1_score, pr_auc, updated_at
		FROM round_metrics ORDER BY round ASC LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	metrics := []RoundMetrics{}
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, 0, err
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return metrics, total, nil
}

func (r *metricsRepo) Latest(ctx context.Context) (RoundMetrics, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT round, accuracy, precision, recall, f1_score, pr_auc, updated_at
		FROM round_metrics ORDER BY round DESC LIMIT 1`,
	)

	m, err := scanMetrics(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RoundMetrics{}, ErrNotFound
	}

	return m, err
}

func (r *metricsRepo) SetThreshold(ctx context.Context, t Threshold) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		thresholdKey,
		t.Value,
		t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *metricsRepo) Threshold(ctx context.Context) (Threshold, error) {
	var (
		t       Threshold
		updated int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, updated_at FROM settings WHERE name = ?`, thresholdKey).Scan(&t.Value, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Threshold{}, ErrNotFound
	case err != nil:
		return Threshold{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	t.UpdatedAt = time.Unix(0, updated).UTC()

	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetrics(s scanner) (RoundMetrics, error) {
	var (
		m       RoundMetrics
		updated int64
	)
	if err := s.Scan(&m.Round, &m.Accuracy, &m.Precision, &m.Recall, &m.F1, &m.PRAUC, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoundMetrics{}, err
		}

		return RoundMetrics{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}
	m.UpdatedAt = time.Unix(0, updated).UTC()

	return m, nil
}
