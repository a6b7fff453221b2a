package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
)

func NewService(repo Repository, units UnitReader, q Queue, calendar *Calendar) *service {
	return &service{
		repo:     repo,
		units:    units,
		queue:    q,
		calendar: calendar,
		subs:     make(map[InventorySubID]chan<- Record),
	}
}

type Service interface {
	CreateAvailability(ctx context.Context, req CreateAvailabilityRequest) (Record, error)
	GenerateCalendar(ctx context.Context, unitID uint64, from, to time.Time) (int, error)
	GetCalendar(ctx context.Context, unitID uint64, from, to time.Time) ([]Record, error)

	PublishInventory(ctx context.Context, records []Record)

	SubscribeInventory(ch chan<- Record) (id InventorySubID)
	UnsubscribeInventory(id InventorySubID)
}

type InventorySubID string

type service struct {
	repo     Repository
	units    UnitReader
	queue    Queue
	calendar *Calendar

	mu   sync.RWMutex
	subs map[InventorySubID]chan<- Record
}

// CreateAvailability sets the capacity of one unit on one date. An existing
// record keeps its booked count unless the request overrides it.
func (s *service) CreateAvailability(ctx context.Context, req CreateAvailabilityRequest) (rec Record, err error) {
	const funcName = "CreateAvailability"

	log.Info().
		Str("func", funcName).
		Uint64("unitId", req.UnitID).
		Str("date", req.Date.Format(core.DateLayout)).
		Int64("roomsAvailable", req.RoomsAvailable).
		Msg("creating availability")

	if req.Date.IsZero() {
		return Record{}, errors.WithMessage(ErrInvalidInventory, "date is required")
	}

	if _, err = s.units.GetUnit(ctx, req.UnitID); err != nil {
		return Record{}, errors.WithStack(err)
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Record{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	rec, err = s.repo.GetInventory(ctx, req.UnitID, req.Date, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Record{}, errors.WithStack(err)
	}
	if errors.Is(err, core.ErrNotFound) {
		rec = NewRecord(req.UnitID, req.Date, 0)
	}

	rec.RoomsAvailable = req.RoomsAvailable
	if req.RoomsBooked != nil {
		rec.RoomsBooked = *req.RoomsBooked
	}
	rec.Recompute()
	rec.Updated = time.Now()

	if err = rec.Validate(); err != nil {
		return Record{}, err
	}

	if err = s.repo.SaveInventory(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return Record{}, errors.WithMessage(err, "failed to save inventory")
	}

	if err = tx.Commit(ctx); err != nil {
		return Record{}, errors.WithMessage(err, "failed to commit availability")
	}

	s.PublishInventory(ctx, []Record{rec})

	return rec, nil
}

func (s *service) GenerateCalendar(ctx context.Context, unitID uint64, from, to time.Time) (int, error) {
	created, err := s.calendar.Generate(ctx, unitID, from, to)
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *service) GetCalendar(ctx context.Context, unitID uint64, from, to time.Time) ([]Record, error) {
	const funcName = "GetCalendar"

	log.Debug().
		Str("func", funcName).
		Uint64("unitId", unitID).
		Str("from", from.Format(core.DateLayout)).
		Str("to", to.Format(core.DateLayout)).
		Msg("getting calendar")

	if err := s.calendar.CheckRange(from, to); err != nil {
		return nil, err
	}

	if _, err := s.units.GetUnit(ctx, unitID); err != nil {
		return nil, errors.WithStack(err)
	}

	records, err := s.repo.GetInventoryRange(ctx, unitID, core.Day(from), core.Day(to))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}

// PublishInventory fans committed records out to the queue and to websocket
// subscribers. Failures are logged, the records are already persisted.
func (s *service) PublishInventory(ctx context.Context, records []Record) {
	for _, rec := range records {
		if err := s.queue.PublishInventory(ctx, rec); err != nil {
			log.Warn().Err(err).Uint64("unitId", rec.UnitID).Str("date", rec.Date.Format(core.DateLayout)).
				Msg("failed to publish inventory to queue")
		}
		go s.notifySubscribers(rec)
	}
}

func (s *service) SubscribeInventory(ch chan<- Record) (id InventorySubID) {
	id = InventorySubID(uuid.NewString())
	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()
	log.Debug().Interface("clientId", id).Msg("subscribing to inventory")
	return id
}

func (s *service) UnsubscribeInventory(id InventorySubID) {
	log.Debug().Interface("clientId", id).Msg("unsubscribing from inventory")
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *service) notifySubscribers(rec Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- rec:
			log.Trace().Interface("clientId", id).Uint64("unitId", rec.UnitID).Msg("notified subscriber of inventory update")
		default:
			log.Warn().Interface("clientId", id).Msg("subscriber is not keeping up, dropping inventory update")
		}
	}
}
