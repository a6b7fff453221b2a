package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
)

func rollback(ctx context.Context, tx core.Transaction, err error) {
	if tx == nil {
		return
	}
	e := tx.Rollback(ctx)
	if e != nil {
		log.Warn().Err(e).AnErr("cause", err).Msg("failed to rollback")
	}
}

type Repository interface {
	core.Transactional
	GetInventory(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (Record, error)
	// GetInventoryRange returns the existing records in [from, to) ordered by date.
	GetInventoryRange(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]Record, error)

	SaveInventory(ctx context.Context, record Record, options ...core.UpdateOptions) error
	// CreateInventoryIfAbsent inserts the records whose (unit, date) has no row
	// yet and reports how many were inserted. Existing rows are left untouched.
	CreateInventoryIfAbsent(ctx context.Context, records []Record, options ...core.UpdateOptions) (int, error)
}

type UnitReader interface {
	GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error)
}

type Queue interface {
	PublishInventory(ctx context.Context, record Record) error
}
