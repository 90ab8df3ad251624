package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/watsonpaul80/tipping-monster/internal/database"
	"github.com/watsonpaul80/tipping-monster/internal/models"
)

var settlementColumns = []string{
	"id", "date", "race_time", "course", "horse", "price", "price_valid", "confidence",
	"position", "stake", "profit", "outcome", "mode", "tags", "nap", "matched",
}

const selectSettlements = `
	SELECT id, date, race_time, course, horse, price, price_valid, confidence,
	       position, stake, profit, outcome, mode, tags, nap, matched
	FROM settlements
`

// PostgresSettlementRepository implements SettlementRepository for PostgreSQL
type PostgresSettlementRepository struct {
	db *database.DB
}

// NewPostgresSettlementRepository creates a new settlement repository
func NewPostgresSettlementRepository(db *database.DB) *PostgresSettlementRepository {
	return &PostgresSettlementRepository{db: db}
}

// ReplaceDay deletes the day's rows and bulk inserts settlements with COPY
// inside one transaction.
func (r *PostgresSettlementRepository) ReplaceDay(ctx context.Context, date time.Time, mode models.StakeMode, settlements []models.Settlement) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM settlements WHERE date = $1 AND mode = $2`, date, string(mode)); err != nil {
			return fmt.Errorf("failed to delete settlements for %s: %w", date.Format(models.DateLayout), err)
		}
		if len(settlements) == 0 {
			return nil
		}

		rows := make([][]interface{}, len(settlements))
		for i := range settlements {
			s := &settlements[i]
			tags := s.Tags
			if tags == nil {
				tags = []string{}
			}
			rows[i] = []interface{}{
				s.ID, s.Date, s.Time, s.Course, s.Horse, s.Price, s.PriceValid, s.Confidence,
				s.PositionText(), s.Stake, s.Profit, string(s.Outcome), string(s.Mode), tags, s.NAP, s.Matched,
			}
		}

		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"settlements"}, settlementColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to batch insert settlements: %w", err)
		}
		if copyCount != int64(len(settlements)) {
			return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(settlements))
		}
		return nil
	})
}

// GetByID retrieves a single settlement
func (r *PostgresSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	row := r.db.GetPool().QueryRow(ctx, selectSettlements+` WHERE id = $1`, id)
	s, err := scanPostgresSettlement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query settlement: %w", err)
	}
	return s, nil
}

// ListByRange retrieves settlements for mode within a date range
func (r *PostgresSettlementRepository) ListByRange(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error) {
	query := selectSettlements + `
		WHERE mode = $1
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		ORDER BY date, race_time, course, horse
	`

	rows, err := r.db.GetPool().Query(ctx, query, string(mode), nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements by range: %w", err)
	}
	defer rows.Close()

	out := make([]models.Settlement, 0)
	for rows.Next() {
		s, err := scanPostgresSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlements: %w", err)
	}
	return out, nil
}

// ListDates returns the distinct settled dates for mode
func (r *PostgresSettlementRepository) ListDates(ctx context.Context, mode models.StakeMode) ([]time.Time, error) {
	rows, err := r.db.GetPool().Query(ctx, `SELECT DISTINCT date FROM settlements WHERE mode = $1 ORDER BY date`, string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query settled dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Ping verifies database connectivity
func (r *PostgresSettlementRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the underlying pool
func (r *PostgresSettlementRepository) Close() error {
	return r.db.Close()
}

func scanPostgresSettlement(row pgx.Row) (*models.Settlement, error) {
	var (
		s        models.Settlement
		position string
		outcome  string
		mode     string
	)
	err := row.Scan(
		&s.ID, &s.Date, &s.Time, &s.Course, &s.Horse, &s.Price, &s.PriceValid, &s.Confidence,
		&position, &s.Stake, &s.Profit, &outcome, &mode, &s.Tags, &s.NAP, &s.Matched,
	)
	if err != nil {
		return nil, err
	}
	s.Position = models.ParsePosition(position)
	s.Outcome = models.Outcome(outcome)
	s.Mode = models.StakeMode(mode)
	return &s, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
