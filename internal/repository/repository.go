package repository

import (
	"context"
	"fmt"

	"github.com/watsonpaul80/tipping-monster/internal/config"
	"github.com/watsonpaul80/tipping-monster/internal/database"
)

// Open returns the settlement repository selected by storage.driver, or nil
// when the mirror is disabled.
func Open(ctx context.Context, cfg *config.Config) (SettlementRepository, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		return nil, nil
	case "postgres":
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres repository: %w", err)
		}
		return NewPostgresSettlementRepository(db), nil
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite repository: %w", err)
		}
		return NewSQLiteSettlementRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
