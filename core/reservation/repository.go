package reservation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/user"
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
	GetReservation(ctx context.Context, ID uint64, options ...core.QueryOptions) (Reservation, error)
	GetReservations(ctx context.Context, resOptions GetReservationsOptions, limit, offset int, options ...core.QueryOptions) ([]Reservation, error)
	// GetOverlappingReservations returns reservations of the unit sharing a night
	// with [start, end), skipping those in an excluded status.
	GetOverlappingReservations(ctx context.Context, unitID uint64, start, end time.Time, exclude []Status, options ...core.QueryOptions) ([]Reservation, error)

	SaveReservation(ctx context.Context, reservation *Reservation, options ...core.UpdateOptions) error
	UpdateReservationStatus(ctx context.Context, ID uint64, status Status, reason string, updated time.Time, options ...core.UpdateOptions) error
}

type Catalog interface {
	GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error)
	GetCompanyUnits(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error)
	SearchCompanies(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uint64, options ...core.QueryOptions) (user.User, error)
}

type InventoryReader interface {
	GetInventoryRange(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error)
}

type InventoryPublisher interface {
	PublishInventory(ctx context.Context, records []inventory.Record)
}

type InvoiceGenerator interface {
	Next(ctx context.Context) (string, error)
}

type Queue interface {
	PublishReservation(ctx context.Context, reservation Reservation) error
}
