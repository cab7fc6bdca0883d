package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrMigration    = errors.New("database migration error")
	ErrCreate       = errors.New("create error")
	ErrNotFound     = errors.New("not found")
)

type RoundMetrics struct {
	Round     int
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	PRAUC     float64
	UpdatedAt time.Time
}

type Threshold struct {
	Value     float64
	UpdatedAt time.Time
}

type MetricsRepository interface {
	Save(ctx context.Context, m RoundMetrics) error
	List(ctx context.Context, offset, limit uint64) ([]RoundMetrics, uint64, error)
	Latest(ctx context.Context) (RoundMetrics, error)
	SetThreshold(ctx context.Context, t Threshold) error
	Threshold(ctx context.Context) (Threshold, error)
}

type Database struct {
	*sql.DB
}

func NewDatabase(path string) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(context.Background()); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS round_metrics (
			round INTEGER PRIMARY KEY,
			accuracy REAL NOT NULL,
			precision REAL NOT NULL,
			recall REAL NOT NULL,
			f1_score REAL NOT NULL,
			pr_auc REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrMigration, err)
		}
	}

	return nil
}
