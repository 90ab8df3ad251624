// Package repository mirrors settlement logs into a queryable store.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// SettlementRepository defines the interface for settlement data access.
// The CSV settlement logs stay authoritative; a repository is a mirror.
type SettlementRepository interface {
	// ReplaceDay deletes every row for date and mode and inserts settlements,
	// atomically, so re-settling a day is idempotent.
	ReplaceDay(ctx context.Context, date time.Time, mode models.StakeMode, settlements []models.Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	// ListByRange returns rows for mode dated within [from, to], ordered by
	// date then race time. Zero bounds are open.
	ListByRange(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error)
	// ListDates returns the distinct settled dates for mode, ascending.
	ListDates(ctx context.Context, mode models.StakeMode) ([]time.Time, error)
	Ping(ctx context.Context) error
	Close() error
}
