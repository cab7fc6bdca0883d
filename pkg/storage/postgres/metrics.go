package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (round) DO UPDATE SET
			accuracy = EXCLUDED.accuracy,
			precision = EXCLUDED.precision,
			recall = EXCLUDED.recall,
			f1_score = EXCLUDED.f1_score,
			pr_auc = EXCLUDED.pr_auc,
			updated_at = EXCLUDED.updated_at`,
		m.Round,
		m.Accuracy,
		m.Precision,
		m.Recall,
		m.F1,
		m.PRAUC,
		m.UpdatedAt,
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
		FROM round_metrics ORDER BY round ASC LIMIT $1 OFFSET $2`,
		int64(limit),
		int64(offset),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	metrics := []RoundMetrics{}
	for rows.Next() {
		var m RoundMetrics
		if err := rows.Scan(&m.Round, &m.Accuracy, &m.Precision, &m.Recall, &m.F1, &m.PRAUC, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		m.UpdatedAt = m.UpdatedAt.UTC()
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return metrics, total, nil
}

func (r *metricsRepo) Latest(ctx context.Context) (RoundMetrics, error) {
	var m RoundMetrics
	err := r.db.QueryRowContext(
		ctx,
		`SELECT round, accuracy, precision, recall, f1_score, pr_auc, updated_at
		FROM round_metrics ORDER BY round DESC LIMIT 1`,
	).Scan(&m.Round, &m.Accuracy, &m.Precision, &m.Recall, &m.F1, &m.PRAUC, &m.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return RoundMetrics{}, ErrNotFound
	case err != nil:
		return RoundMetrics{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}
	m.UpdatedAt = m.UpdatedAt.UTC()

	return m, nil
}

func (r *metricsRepo) SetThreshold(ctx context.Context, t Threshold) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (name, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		thresholdKey,
		t.Value,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *metricsRepo) Threshold(ctx context.Context) (Threshold, error) {
	var t Threshold
	err := r.db.QueryRowContext(ctx, `SELECT value, updated_at FROM settings WHERE name = $1`, thresholdKey).Scan(&t.Value, &t.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Threshold{}, ErrNotFound
	case err != nil:
		return Threshold{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	t.UpdatedAt = t.UpdatedAt.UTC()

	return t, nil
}
