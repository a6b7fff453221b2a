package reservation

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/pricing"
)

var (
	ErrDateRangeConflict        = errors.New("date range conflict")
	ErrInsufficientCapacity     = inventory.ErrInsufficientCapacity
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrForbidden                = errors.New("forbidden")
	ErrNoPriceConfigured        = pricing.ErrNoPriceConfigured
	ErrNoContactMethod          = errors.New("no contact method")
	ErrInvalidRequest           = errors.New("invalid request")
)

type ConflictError struct {
	UnitID        uint64
	StartDate     time.Time
	EndDate       time.Time
	ReservationID uint64
	ExistingStart time.Time
	ExistingEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unit %d is already reserved from %s to %s (reservation %d), requested %s to %s",
		e.UnitID, e.ExistingStart.Format(core.DateLayout), e.ExistingEnd.Format(core.DateLayout), e.ReservationID,
		e.StartDate.Format(core.DateLayout), e.EndDate.Format(core.DateLayout))
}

func (e *ConflictError) Unwrap() error {
	return ErrDateRangeConflict
}

type TransitionError struct {
	ReservationID uint64
	From          Status
	To            Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation %d cannot change status from %s to %s", e.ReservationID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}
