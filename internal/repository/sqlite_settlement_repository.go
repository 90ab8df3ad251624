package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

const sqliteSelectSettlements = `
	SELECT id, date, race_time, course, horse, price, price_valid, confidence,
	       position, stake, profit, outcome, mode, tags, nap, matched
	FROM settlements
`

// SQLiteSettlementRepository implements SettlementRepository on an embedded
// SQLite file.
type SQLiteSettlementRepository struct {
	db *sql.DB
}

// NewSQLiteSettlementRepository wraps an opened SQLite database.
func NewSQLiteSettlementRepository(db *sql.DB) *SQLiteSettlementRepository {
	return &SQLiteSettlementRepository{db: db}
}

// ReplaceDay implements SettlementRepository.
func (r *SQLiteSettlementRepository) ReplaceDay(ctx context.Context, date time.Time, mode models.StakeMode, settlements []models.Settlement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	day := date.Format(models.DateLayout)
	if _, err := tx.ExecContext(ctx, `DELETE FROM settlements WHERE date = ? AND mode = ?`, day, string(mode)); err != nil {
		return fmt.Errorf("failed to delete settlements for %s: %w", day, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settlements (id, date, race_time, course, horse, price, price_valid, confidence,
		                         position, stake, profit, outcome, mode, tags, nap, matched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range settlements {
		s := &settlements[i]
		var conf sql.NullFloat64
		if c, ok := s.GetConfidence(); ok {
			conf = sql.NullFloat64{Float64: c, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			s.ID.String(), s.Date.Format(models.DateLayout), s.Time, s.Course, s.Horse,
			s.Price, s.PriceValid, conf, s.PositionText(), s.Stake, s.Profit,
			string(s.Outcome), string(s.Mode), strings.Join(s.Tags, "|"), s.NAP, s.Matched,
		); err != nil {
			return fmt.Errorf("failed to insert settlement %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID implements SettlementRepository.
func (r *SQLiteSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	row := r.db.QueryRowContext(ctx, sqliteSelectSettlements+` WHERE id = ?`, id.String())
	s, err := scanSQLiteSettlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query settlement: %w", err)
	}
	return s, nil
}

// ListByRange implements SettlementRepository.
func (r *SQLiteSettlementRepository) ListByRange(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error) {
	query := sqliteSelectSettlements + ` WHERE mode = ?`
	args := []any{string(mode)}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.Format(models.DateLayout))
	}
	query += ` ORDER BY date, race_time, course, horse`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements by range: %w", err)
	}
	defer rows.Close()

	out := make([]models.Settlement, 0)
	for rows.Next() {
		s, err := scanSQLiteSettlement(rows)
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

// ListDates implements SettlementRepository.
func (r *SQLiteSettlementRepository) ListDates(ctx context.Context, mode models.StakeMode) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT date FROM settlements WHERE mode = ? ORDER BY date`, string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query settled dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Ping implements SettlementRepository.
func (r *SQLiteSettlementRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close implements SettlementRepository.
func (r *SQLiteSettlementRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSettlement(row rowScanner) (*models.Settlement, error) {
	var (
		s                        models.Settlement
		id, date, position, tags string
		outcome, mode            string
		conf                     sql.NullFloat64
	)
	err := row.Scan(
		&id, &date, &s.Time, &s.Course, &s.Horse, &s.Price, &s.PriceValid, &conf,
		&position, &s.Stake, &s.Profit, &outcome, &mode, &tags, &s.NAP, &s.Matched,
	)
	if err != nil {
		return nil, err
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid stored id %q: %w", id, err)
	}
	if s.Date, err = time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	if conf.Valid {
		c := conf.Float64
		s.Confidence = &c
	}
	if tags != "" {
		s.Tags = strings.Split(tags, "|")
	}
	s.Position = models.ParsePosition(position)
	s.Outcome = models.Outcome(outcome)
	s.Mode = models.StakeMode(mode)
	return &s, nil
}
