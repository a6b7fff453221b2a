package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
)

type InventoryRepo struct {
	*Store
}

func (r *InventoryRepo) GetInventory(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (rec inventory.Record, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		var ok bool
		rec, ok = d.inventory[invKey{unitID, core.Day(date)}]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return rec, err
}

func (r *InventoryRepo) GetInventoryRange(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error) {
	records := make([]inventory.Record, 0)
	err := r.read(queryTx(options), func(d *state) error {
		for _, day := range core.EachDay(from, to) {
			if rec, ok := d.inventory[invKey{unitID, day}]; ok {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (r *InventoryRepo) SaveInventory(ctx context.Context, rec inventory.Record, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		rec.Date = core.Day(rec.Date)
		d.inventory[invKey{rec.UnitID, rec.Date}] = rec
		return nil
	})
}

func (r *InventoryRepo) CreateInventoryIfAbsent(ctx context.Context, records []inventory.Record, options ...core.UpdateOptions) (int, error) {
	created := 0
	err := r.write(updateTx(options), func(d *state) error {
		for _, rec := range records {
			rec.Date = core.Day(rec.Date)
			key := invKey{rec.UnitID, rec.Date}
			if _, ok := d.inventory[key]; ok {
				continue
			}
			d.inventory[key] = rec
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
