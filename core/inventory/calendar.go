package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
)

// Calendar materializes inventory records for date ranges, seeding new ones
// from the unit's default capacity.
type Calendar struct {
	repo            Repository
	units           UnitReader
	defaultCapacity int64
	maxNights       int
}

type CalendarOption func(c *Calendar)

// WithMaxNights caps the nights of any range the calendar will generate or
// scan. Zero or less keeps core.DefaultMaxNights.
func WithMaxNights(n int) CalendarOption {
	return func(c *Calendar) {
		if n > 0 {
			c.maxNights = n
		}
	}
}

// NewCalendar builds a calendar generator. defaultCapacity seeds units that do
// not declare a quantity of their own.
func NewCalendar(repo Repository, units UnitReader, defaultCapacity int64, options ...CalendarOption) *Calendar {
	c := &Calendar{repo: repo, units: units, defaultCapacity: defaultCapacity, maxNights: core.DefaultMaxNights}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Calendar) MaxNights() int {
	return c.maxNights
}

// CheckRange wraps core.CheckRange with the calendar's limit.
func (c *Calendar) CheckRange(from, to time.Time) error {
	if err := core.CheckRange(from, to, c.maxNights); err != nil {
		return errors.WithMessage(ErrInvalidRange, err.Error())
	}
	return nil
}

func (c *Calendar) Capacity(unit catalog.Unit) int64 {
	if unit.Quantity > 0 {
		return unit.Quantity
	}
	return c.defaultCapacity
}

// Generate fills every date of [from, to) that lacks a record and returns the
// number of records created. Existing records are never overwritten.
func (c *Calendar) Generate(ctx context.Context, unitID uint64, from, to time.Time) (created int, err error) {
	const funcName = "Generate"

	if err = c.CheckRange(from, to); err != nil {
		return 0, err
	}

	unit, err := c.units.GetUnit(ctx, unitID)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	days := core.EachDay(from, to)
	if len(days) == 0 {
		return 0, nil
	}

	tx, err := c.repo.BeginTransaction(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	created, err = c.repo.CreateInventoryIfAbsent(ctx, seed(unitID, days, c.Capacity(unit)), core.UpdateOptions{Tx: tx})
	if err != nil {
		return 0, errors.WithMessage(err, "failed to create inventory records")
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, errors.WithMessage(err, "failed to commit calendar")
	}

	log.Info().
		Str("func", funcName).
		Uint64("unitId", unitID).
		Str("from", days[0].Format(core.DateLayout)).
		Int("days", len(days)).
		Int("created", created).
		Msg("generated calendar")

	return created, nil
}

// Ensure creates any missing records of [from, to) within tx and returns every
// record of the range locked for update, ordered by date.
func (c *Calendar) Ensure(ctx context.Context, tx core.Transaction, unitID uint64, from, to time.Time, capacity int64) ([]Record, error) {
	if err := c.CheckRange(from, to); err != nil {
		return nil, err
	}

	days := core.EachDay(from, to)
	if len(days) == 0 {
		return []Record{}, nil
	}

	if _, err := c.repo.CreateInventoryIfAbsent(ctx, seed(unitID, days, capacity), core.UpdateOptions{Tx: tx}); err != nil {
		return nil, errors.WithMessage(err, "failed to create missing inventory")
	}

	records, err := c.repo.GetInventoryRange(ctx, unitID, days[0], days[len(days)-1].AddDate(0, 0, 1), core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to lock inventory range")
	}
	if len(records) != len(days) {
		return nil, errors.Errorf("expected %d inventory records for unit %d, found %d", len(days), unitID, len(records))
	}

	return records, nil
}

func seed(unitID uint64, days []time.Time, capacity int64) []Record {
	records := make([]Record, 0, len(days))
	for _, d := range days {
		records = append(records, NewRecord(unitID, d, capacity))
	}
	return records
}
