package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
)

// Mutator is the only thing allowed to change booked counts.
type Mutator struct {
	repo     Repository
	calendar *Calendar
}

func NewMutator(repo Repository, calendar *Calendar) *Mutator {
	return &Mutator{repo: repo, calendar: calendar}
}

// ApplyDelta books (negative delta) or restitutes (positive delta) rooms on
// every date of [from, to) within tx. Missing records are created with
// fallbackCapacity. The whole range is validated before anything is written,
// so a capacity failure leaves every date untouched.
func (m *Mutator) ApplyDelta(ctx context.Context, tx core.Transaction, unitID uint64, from, to time.Time, delta, fallbackCapacity int64) ([]Record, error) {
	const funcName = "ApplyDelta"

	records, err := m.calendar.Ensure(ctx, tx, unitID, from, to, fallbackCapacity)
	if err != nil {
		return nil, err
	}

	if delta < 0 {
		if err := CheckCapacity(records, -delta); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	for i := range records {
		rec := &records[i]
		rec.RoomsBooked -= delta
		if rec.RoomsBooked < 0 {
			log.Warn().
				Str("func", funcName).
				Uint64("unitId", unitID).
				Str("date", rec.Date.Format(core.DateLayout)).
				Int64("delta", delta).
				Int64("roomsBooked", rec.RoomsBooked).
				Msg("restitution exceeds booked rooms, flooring at zero")
			rec.RoomsBooked = 0
		}
		rec.Recompute()
		rec.Updated = now
	}

	for _, rec := range records {
		if err := m.repo.SaveInventory(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
			return nil, errors.WithMessagef(err, "failed to save inventory for %s", rec.Date.Format(core.DateLayout))
		}
	}

	log.Debug().
		Str("func", funcName).
		Uint64("unitId", unitID).
		Int64("delta", delta).
		Int("days", len(records)).
		Msg("applied inventory delta")

	return records, nil
}

// CheckCapacity returns a CapacityError for the first record with fewer than
// rooms remaining.
func CheckCapacity(records []Record, rooms int64) error {
	for _, rec := range records {
		if rec.RoomsRemaining < rooms {
			return &CapacityError{UnitID: rec.UnitID, Date: rec.Date, Requested: rooms, Remaining: rec.RoomsRemaining}
		}
	}
	return nil
}
