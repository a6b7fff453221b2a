package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
)

type ReservationRepo struct {
	*Store
}

func (r *ReservationRepo) GetReservation(ctx context.Context, ID uint64, options ...core.QueryOptions) (res reservation.Reservation, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		var ok bool
		res, ok = d.reservations[ID]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return res, err
}

func (r *ReservationRepo) GetReservations(ctx context.Context, resOptions reservation.GetReservationsOptions, limit, offset int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	matched := make([]reservation.Reservation, 0)
	err := r.read(queryTx(options), func(d *state) error {
		for _, res := range d.reservations {
			if resOptions.UnitID != 0 && res.UnitID != resOptions.UnitID {
				continue
			}
			if resOptions.UserID != 0 && res.UserID != resOptions.UserID {
				continue
			}
			if resOptions.Status != reservation.None && res.Status != resOptions.Status {
				continue
			}
			matched = append(matched, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Created.Equal(matched[j].Created) {
			return matched[i].Created.Before(matched[j].Created)
		}
		return matched[i].ID < matched[j].ID
	})

	return page(matched, limit, offset), nil
}

func (r *ReservationRepo) GetOverlappingReservations(ctx context.Context, unitID uint64, start, end time.Time, exclude []reservation.Status, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	overlapping := make([]reservation.Reservation, 0)
	err := r.read(queryTx(options), func(d *state) error {
		for _, res := range d.reservations {
			if res.UnitID != unitID || excluded(res.Status, exclude) {
				continue
			}
			if res.Overlaps(core.Day(start), core.Day(end)) {
				overlapping = append(overlapping, res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(overlapping, func(i, j int) bool {
		if !overlapping[i].StartDate.Equal(overlapping[j].StartDate) {
			return overlapping[i].StartDate.Before(overlapping[j].StartDate)
		}
		return overlapping[i].ID < overlapping[j].ID
	})
	return overlapping, nil
}

func (r *ReservationRepo) SaveReservation(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		for _, existing := range d.reservations {
			if existing.InvoiceNumber == res.InvoiceNumber {
				return errors.WithMessagef(ErrDuplicateKey, "invoice number %s", res.InvoiceNumber)
			}
		}
		d.reservationSeq++
		res.ID = d.reservationSeq
		d.reservations[res.ID] = *res
		return nil
	})
}

func (r *ReservationRepo) UpdateReservationStatus(ctx context.Context, ID uint64, status reservation.Status, reason string, updated time.Time, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		res, ok := d.reservations[ID]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		res.Status = status
		res.Reason = reason
		res.Updated = updated
		d.reservations[ID] = res
		return nil
	})
}

func excluded(s reservation.Status, exclude []reservation.Status) bool {
	for _, e := range exclude {
		if s == e {
			return true
		}
	}
	return false
}

func page(all []reservation.Reservation, limit, offset int) []reservation.Reservation {
	if offset >= len(all) {
		return []reservation.Reservation{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
