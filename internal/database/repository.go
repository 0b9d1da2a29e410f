package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"trade-advisor/internal/validation"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// GetDB returns the underlying DB instance for direct access
func (r *Repository) GetDB() *DB {
	return r.db
}

// ============================================================================
// SIGNAL RECORDS
// ============================================================================

// Record inserts a generated signal and returns its id.
func (r *Repository) Record(ctx context.Context, rec validation.SignalRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := `
		INSERT INTO signal_records (id, created_at, signal_type, confidence, adjusted_confidence, regime_type, entry_price, validated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
	`
	_, err := r.db.Pool.Exec(
		ctx, query,
		rec.ID, rec.Timestamp, rec.SignalType, rec.Confidence, rec.AdjustedConfidence,
		rec.RegimeType, rec.EntryPrice,
	)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// QuerySimilar returns validated outcomes for the same signal type and regime.
// Most recent first, capped so stale history cannot dominate the adjustment.
func (r *Repository) QuerySimilar(ctx context.Context, signalType, regimeType string) ([]validation.Outcome, error) {
	query := `
		SELECT accurate
		FROM signal_records
		WHERE signal_type = $1 AND regime_type = $2 AND validated = TRUE AND accurate IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 200
	`
	rows, err := r.db.Pool.Query(ctx, query, signalType, regimeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []validation.Outcome
	for rows.Next() {
		var accurate bool
		if err := rows.Scan(&accurate); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, validation.Outcome{Accurate: accurate})
	}
	return outcomes, rows.Err()
}

// MarkOutcome records the realized outcome of a previously stored signal.
func (r *Repository) MarkOutcome(ctx context.Context, id string, accurate bool, exitPrice float64) error {
	query := `
		UPDATE signal_records
		SET validated = TRUE, accurate = $2, exit_price = $3
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, id, accurate, exitPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("signal record not found: %s", id)
	}
	return nil
}

// GetRecentRecords retrieves the most recent signal records
func (r *Repository) GetRecentRecords(ctx context.Context, limit int) ([]validation.SignalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, signal_type, confidence, adjusted_confidence, regime_type, entry_price, validated, accurate, exit_price
		FROM signal_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []validation.SignalRecord
	for rows.Next() {
		var rec validation.SignalRecord
		err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.SignalType, &rec.Confidence, &rec.AdjustedConfidence,
			&rec.RegimeType, &rec.EntryPrice, &rec.Validated, &rec.Accurate, &rec.ExitPrice,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecordByID retrieves a single signal record
func (r *Repository) GetRecordByID(ctx context.Context, id string) (*validation.SignalRecord, error) {
	query := `
		SELECT id, created_at, signal_type, confidence, adjusted_confidence, regime_type, entry_price, validated, accurate, exit_price
		FROM signal_records
		WHERE id = $1
	`
	rec := &validation.SignalRecord{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Timestamp, &rec.SignalType, &rec.Confidence, &rec.AdjustedConfidence,
		&rec.RegimeType, &rec.EntryPrice, &rec.Validated, &rec.Accurate, &rec.ExitPrice,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("signal record not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ============================================================================
// ACCURACY METRICS
// ============================================================================

// GetAccuracyMetrics aggregates validated outcomes overall and per grouping.
func (r *Repository) GetAccuracyMetrics(ctx context.Context) (*AccuracyMetrics, error) {
	metrics := &AccuracyMetrics{}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE validated),
		       COUNT(*) FILTER (WHERE validated AND accurate)
		FROM signal_records
	`
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&metrics.TotalSignals, &metrics.ValidatedSignals, &metrics.AccurateSignals,
	)
	if err != nil {
		return nil, err
	}
	if metrics.ValidatedSignals > 0 {
		metrics.OverallAccuracy = float64(metrics.AccurateSignals) / float64(metrics.ValidatedSignals)
	}

	metrics.BySignalType, err = r.accuracyBuckets(ctx, "signal_type")
	if err != nil {
		return nil, err
	}
	metrics.ByRegimeType, err = r.accuracyBuckets(ctx, "regime_type")
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (r *Repository) accuracyBuckets(ctx context.Context, column string) ([]AccuracyBucket, error) {
	// column is one of the fixed grouping columns above, never user input.
	query := fmt.Sprintf(`
		SELECT %s,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE accurate)
		FROM signal_records
		WHERE validated
		GROUP BY %s
		ORDER BY %s
	`, column, column, column)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []AccuracyBucket
	for rows.Next() {
		var b AccuracyBucket
		if err := rows.Scan(&b.Key, &b.Total, &b.Accurate); err != nil {
			return nil, err
		}
		if b.Total > 0 {
			b.Accuracy = float64(b.Accurate) / float64(b.Total)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
