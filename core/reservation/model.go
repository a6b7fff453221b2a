// Package reservation books date ranges of a unit's inventory and drives each
// reservation through its status lifecycle.
package reservation

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core"
)

// BookingRequest is a value object. A request to hold Quantity rooms of a unit
// for the nights of [StartDate, EndDate).
type BookingRequest struct {
	UserID    uint64    `json:"userId"`
	UnitID    uint64    `json:"unitId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Adults    int       `json:"adults"`
	Children  int       `json:"children"`
	Quantity  int64     `json:"quantity,omitempty"`
}

func (r *BookingRequest) normalize() {
	r.StartDate = core.Day(r.StartDate)
	r.EndDate = core.Day(r.EndDate)
	if r.Quantity == 0 {
		r.Quantity = 1
	}
}

func (r BookingRequest) validate(maxNights int) error {
	if r.UnitID == 0 {
		return errors.WithMessage(ErrInvalidRequest, "unit id is required")
	}
	if r.UserID == 0 {
		return errors.WithMessage(ErrInvalidRequest, "user id is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return errors.WithMessage(ErrInvalidRequest, "start and end dates are required")
	}
	if err := core.CheckRange(r.StartDate, r.EndDate, maxNights); err != nil {
		return errors.WithMessage(ErrInvalidRequest, err.Error())
	}
	if !r.StartDate.Before(r.EndDate) {
		return errors.WithMessagef(ErrInvalidRequest, "end date %s must be after start date %s",
			r.EndDate.Format(core.DateLayout), r.StartDate.Format(core.DateLayout))
	}
	if r.Adults < 1 {
		return errors.WithMessage(ErrInvalidRequest, "at least one adult is required")
	}
	if r.Children < 0 {
		return errors.WithMessage(ErrInvalidRequest, "children must not be negative")
	}
	if r.Quantity < 1 {
		return errors.WithMessage(ErrInvalidRequest, "quantity must be greater than zero")
	}
	return nil
}

// Reservation is an entity. Quantity rooms of a unit held for a user over the
// nights of [StartDate, EndDate). Only Status, Reason and Updated change after
// creation.
type Reservation struct {
	ID            uint64          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	UserID        uint64          `json:"userId"`
	UnitID        uint64          `json:"unitId"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	Quantity      int64           `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        Status          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}

func (r Reservation) Nights() int {
	return core.Nights(r.StartDate, r.EndDate)
}

// Overlaps reports whether the reservation shares at least one night with
// [start, end). Ranges that only touch do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && r.EndDate.After(start)
}

type GetReservationsOptions struct {
	UnitID uint64
	UserID uint64
	Status Status
}

func cleanReason(reason string) string {
	return strings.TrimSpace(reason)
}
