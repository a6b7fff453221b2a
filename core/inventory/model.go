// Package inventory tracks how many rooms of a bookable unit exist, are booked
// and remain on each calendar date.
package inventory

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
)

var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrInvalidInventory     = errors.New("invalid inventory")
	ErrInvalidRange         = errors.New("invalid date range")
)

// Record is an entity. The inventory of one unit on one date. RoomsAvailable is
// the capacity for the date, RoomsBooked only moves through bookings and their
// restitution, RoomsRemaining is always derived from the two.
type Record struct {
	UnitID         uint64    `json:"unitId"`
	Date           time.Time `json:"date"`
	RoomsAvailable int64     `json:"roomsAvailable"`
	RoomsBooked    int64     `json:"roomsBooked"`
	RoomsRemaining int64     `json:"roomsRemaining"`
	Updated        time.Time `json:"updated"`
}

func NewRecord(unitID uint64, date time.Time, roomsAvailable int64) Record {
	r := Record{
		UnitID:         unitID,
		Date:           core.Day(date),
		RoomsAvailable: roomsAvailable,
		Updated:        time.Now(),
	}
	r.Recompute()
	return r
}

func (r *Record) Recompute() {
	r.RoomsRemaining = r.RoomsAvailable - r.RoomsBooked
}

func (r Record) Validate() error {
	if r.RoomsAvailable < 0 {
		return errors.WithMessagef(ErrInvalidInventory, "rooms available must not be negative, got %d", r.RoomsAvailable)
	}
	if r.RoomsBooked < 0 {
		return errors.WithMessagef(ErrInvalidInventory, "rooms booked must not be negative, got %d", r.RoomsBooked)
	}
	if r.RoomsBooked > r.RoomsAvailable {
		return errors.WithMessagef(ErrInvalidInventory, "rooms booked (%d) exceed rooms available (%d) on %s",
			r.RoomsBooked, r.RoomsAvailable, r.Date.Format(core.DateLayout))
	}
	return nil
}

// CapacityError names the first date of a range that could not take a booking.
type CapacityError struct {
	UnitID    uint64
	Date      time.Time
	Requested int64
	Remaining int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity for unit %d on %s: %d rooms requested, %d remaining (short by %d)",
		e.UnitID, e.Date.Format(core.DateLayout), e.Requested, e.Remaining, e.Shortfall())
}

func (e *CapacityError) Shortfall() int64 {
	return e.Requested - e.Remaining
}

func (e *CapacityError) Unwrap() error {
	return ErrInsufficientCapacity
}

type CreateAvailabilityRequest struct {
	UnitID         uint64    `json:"unitId"`
	Date           time.Time `json:"date"`
	RoomsAvailable int64     `json:"roomsAvailable"`
	RoomsBooked    *int64    `json:"roomsBooked,omitempty"`
}
