package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/pricing"
	"github.com/sksmith/room-reservation/core/user"
	"github.com/sksmith/room-reservation/invoice"
)

const DefaultCancellationCutoff = 24 * time.Hour

// released statuses no longer hold their dates.
var released = []Status{Rejected, Cancelled}

type Option func(s *service)

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

func WithInvoiceGenerator(g InvoiceGenerator) Option {
	return func(s *service) { s.invoices = g }
}

func WithQueue(q Queue) Option {
	return func(s *service) { s.queue = q }
}

func WithInventoryPublisher(p InventoryPublisher) Option {
	return func(s *service) { s.inventoryPub = p }
}

// WithCancellationCutoff sets how long before the start date an owner may
// still cancel.
func WithCancellationCutoff(d time.Duration) Option {
	return func(s *service) { s.cutoff = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, cat Catalog, users UserDirectory, inv InventoryReader,
	calendar *inventory.Calendar, mutator *inventory.Mutator, options ...Option) *service {

	s := &service{
		repo:     repo,
		catalog:  cat,
		users:    users,
		inv:      inv,
		calendar: calendar,
		mutator:  mutator,
		notifier: logNotifier{},
		invoices: invoice.NewGenerator("INV"),
		cutoff:   DefaultCancellationCutoff,
		now:      time.Now,
		subs:     make(map[ReservationsSubID]chan<- Reservation),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

type Service interface {
	Book(ctx context.Context, req BookingRequest) (Reservation, error)
	UpdateStatus(ctx context.Context, ID uint64, status Status, reason string) (Reservation, error)
	Cancel(ctx context.Context, ID uint64, userID uint64, reason string) (Reservation, error)

	GetReservation(ctx context.Context, ID uint64) (Reservation, error)
	GetReservations(ctx context.Context, options GetReservationsOptions, limit, offset int) ([]Reservation, error)

	Search(ctx context.Context, query SearchQuery) (SearchResult, error)

	SubscribeReservations(ch chan<- Reservation) (id ReservationsSubID)
	UnsubscribeReservations(id ReservationsSubID)
}

type ReservationsSubID string

type service struct {
	repo     Repository
	catalog  Catalog
	users    UserDirectory
	inv      InventoryReader
	calendar *inventory.Calendar
	mutator  *inventory.Mutator

	notifier     Notifier
	invoices     InvoiceGenerator
	queue        Queue
	inventoryPub InventoryPublisher
	cutoff       time.Duration
	now          func() time.Time

	mu   sync.RWMutex
	subs map[ReservationsSubID]chan<- Reservation
}

// Book reserves req.Quantity rooms on every night of the requested range. The
// capacity check, the overlap check, the reservation insert and the inventory
// update share one transaction with the unit and its inventory rows locked.
// Capacity is checked first so a request failing both reports the shortfall.
func (s *service) Book(ctx context.Context, req BookingRequest) (res Reservation, err error) {
	const funcName = "Book"

	req.normalize()

	log.Info().
		Str("func", funcName).
		Uint64("userId", req.UserID).
		Uint64("unitId", req.UnitID).
		Str("startDate", req.StartDate.Format(core.DateLayout)).
		Str("endDate", req.EndDate.Format(core.DateLayout)).
		Int64("quantity", req.Quantity).
		Msg("booking")

	if err = req.validate(s.calendar.MaxNights()); err != nil {
		return Reservation{}, err
	}

	unit, err := s.catalog.GetUnit(ctx, req.UnitID)
	if err != nil {
		return Reservation{}, errors.WithMessagef(err, "unit %d", req.UnitID)
	}

	usr, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return Reservation{}, errors.WithMessagef(err, "user %d", req.UserID)
	}
	if !usr.HasContact() {
		return Reservation{}, errors.WithMessagef(ErrNoContactMethod, "user %d has neither a usable email nor phone number", usr.ID)
	}

	if !fitsRooms(unit, req.Adults, req.Children, req.Quantity) {
		return Reservation{}, errors.WithMessagef(ErrInvalidRequest, "a party of %d adults and %d children does not fit in %d room(s) of unit %d",
			req.Adults, req.Children, req.Quantity, unit.ID)
	}

	invoiceNumber, err := s.invoices.Next(ctx)
	if err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to generate invoice number")
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	if _, err = s.catalog.GetUnit(ctx, req.UnitID, core.QueryOptions{Tx: tx, ForUpdate: true}); err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to lock unit")
	}

	capacity := s.calendar.Capacity(unit)
	records, err := s.calendar.Ensure(ctx, tx, req.UnitID, req.StartDate, req.EndDate, capacity)
	if err != nil {
		return Reservation{}, err
	}
	if err = inventory.CheckCapacity(records, req.Quantity); err != nil {
		return Reservation{}, err
	}

	overlapping, err := s.repo.GetOverlappingReservations(ctx, req.UnitID, req.StartDate, req.EndDate, released, core.QueryOptions{Tx: tx})
	if err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to check overlapping reservations")
	}
	if len(overlapping) > 0 {
		existing := overlapping[0]
		err = &ConflictError{
			UnitID:        req.UnitID,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			ReservationID: existing.ID,
			ExistingStart: existing.StartDate,
			ExistingEnd:   existing.EndDate,
		}
		return Reservation{}, err
	}

	rate, err := unit.Nightly()
	if err != nil {
		return Reservation{}, errors.WithMessagef(err, "unit %d", unit.ID)
	}

	now := s.now()
	res = Reservation{
		InvoiceNumber: invoiceNumber,
		UserID:        req.UserID,
		UnitID:        req.UnitID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Adults:        req.Adults,
		Children:      req.Children,
		Quantity:      req.Quantity,
		TotalPrice:    pricing.Total(rate, len(records), int(req.Quantity)),
		Status:        Pending,
		Created:       now,
		Updated:       now,
	}

	if err = s.repo.SaveReservation(ctx, &res, core.UpdateOptions{Tx: tx}); err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to save reservation")
	}

	records, err = s.mutator.ApplyDelta(ctx, tx, req.UnitID, req.StartDate, req.EndDate, -req.Quantity, capacity)
	if err != nil {
		return Reservation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to commit reservation")
	}

	log.Info().
		Str("func", funcName).
		Uint64("reservationId", res.ID).
		Str("invoiceNumber", res.InvoiceNumber).
		Str("totalPrice", res.TotalPrice.StringFixed(2)).
		Msg("reservation created")

	s.afterCommit(ctx, res, records, usr, unit)

	return res, nil
}

// UpdateStatus is the administrative transition. Cancelling this way ignores
// the cancellation window.
func (s *service) UpdateStatus(ctx context.Context, ID uint64, status Status, reason string) (Reservation, error) {
	return s.transition(ctx, ID, status, reason, transitionOptions{})
}

// Cancel is the owner's transition. Only the user who made the reservation may
// cancel it, with a reason, while its start is further away than the cutoff.
func (s *service) Cancel(ctx context.Context, ID uint64, userID uint64, reason string) (Reservation, error) {
	reason = cleanReason(reason)
	if reason == "" {
		return Reservation{}, errors.WithMessage(ErrInvalidRequest, "a reason is required to cancel a reservation")
	}
	return s.transition(ctx, ID, Cancelled, reason, transitionOptions{owner: &userID, enforceWindow: true})
}

type transitionOptions struct {
	owner         *uint64
	enforceWindow bool
}

func (s *service) transition(ctx context.Context, ID uint64, to Status, reason string, opts transitionOptions) (res Reservation, err error) {
	const funcName = "transition"

	log.Info().
		Str("func", funcName).
		Uint64("reservationId", ID).
		Str("status", string(to)).
		Msg("changing reservation status")

	if to == None {
		return Reservation{}, errors.WithMessage(ErrInvalidRequest, "status is required")
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	res, err = s.repo.GetReservation(ctx, ID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Reservation{}, errors.WithMessagef(err, "reservation %d", ID)
	}

	if opts.owner != nil && res.UserID != *opts.owner {
		err = errors.WithMessagef(ErrForbidden, "user %d does not own reservation %d", *opts.owner, ID)
		return Reservation{}, err
	}

	if !CanTransition(res.Status, to) {
		err = &TransitionError{ReservationID: ID, From: res.Status, To: to}
		return Reservation{}, err
	}

	if to == Cancelled && opts.enforceWindow {
		if lead := res.StartDate.Sub(s.now()); lead <= s.cutoff {
			err = errors.WithMessagef(ErrCancellationWindowClosed, "reservation %d starts %s, cancellations close %s before the start date",
				ID, res.StartDate.Format(core.DateLayout), s.cutoff)
			return Reservation{}, err
		}
	}

	usr, userErr := s.users.GetByID(ctx, res.UserID)
	if to == Confirmed {
		if userErr != nil {
			err = errors.WithMessagef(userErr, "user %d", res.UserID)
			return Reservation{}, err
		}
		if !usr.HasContact() {
			err = errors.WithMessagef(ErrNoContactMethod, "user %d has neither a usable email nor phone number", usr.ID)
			return Reservation{}, err
		}
	}

	unit, err := s.catalog.GetUnit(ctx, res.UnitID, core.QueryOptions{Tx: tx, ForUpdate: to.Restitutes()})
	if err != nil {
		return Reservation{}, errors.WithMessagef(err, "unit %d", res.UnitID)
	}

	var records []inventory.Record
	if to.Restitutes() {
		records, err = s.mutator.ApplyDelta(ctx, tx, res.UnitID, res.StartDate, res.EndDate, res.Quantity, s.calendar.Capacity(unit))
		if err != nil {
			return Reservation{}, err
		}
	}

	res.Status = to
	if r := cleanReason(reason); r != "" {
		res.Reason = r
	}
	res.Updated = s.now()

	if err = s.repo.UpdateReservationStatus(ctx, res.ID, res.Status, res.Reason, res.Updated, core.UpdateOptions{Tx: tx}); err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to update reservation status")
	}

	if err = tx.Commit(ctx); err != nil {
		return Reservation{}, errors.WithMessage(err, "failed to commit status change")
	}

	if userErr != nil {
		log.Warn().Err(userErr).Uint64("userId", res.UserID).Msg("reservation owner not found, skipping notification")
		s.publish(ctx, res, records)
		return res, nil
	}

	s.afterCommit(ctx, res, records, usr, unit)

	return res, nil
}

func (s *service) GetReservation(ctx context.Context, ID uint64) (Reservation, error) {
	const funcName = "GetReservation"

	log.Info().
		Str("func", funcName).
		Uint64("id", ID).
		Msg("getting reservation")

	rsv, err := s.repo.GetReservation(ctx, ID)
	if err != nil {
		return rsv, errors.WithStack(err)
	}
	return rsv, nil
}

func (s *service) GetReservations(ctx context.Context, options GetReservationsOptions, limit, offset int) ([]Reservation, error) {
	const funcName = "GetReservations"

	log.Info().
		Str("func", funcName).
		Uint64("unitId", options.UnitID).
		Uint64("userId", options.UserID).
		Str("status", string(options.Status)).
		Msg("getting reservations")

	rsv, err := s.repo.GetReservations(ctx, options, limit, offset)
	if err != nil {
		return rsv, errors.WithStack(err)
	}
	return rsv, nil
}

func (s *service) SubscribeReservations(ch chan<- Reservation) (id ReservationsSubID) {
	id = ReservationsSubID(uuid.NewString())
	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()
	log.Debug().Interface("clientId", id).Msg("subscribing to reservations")
	return id
}

func (s *service) UnsubscribeReservations(id ReservationsSubID) {
	log.Debug().Interface("clientId", id).Msg("unsubscribing from reservations")
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// afterCommit runs the side effects of a committed change. None of them can
// undo the change, failures are only logged.
func (s *service) afterCommit(ctx context.Context, res Reservation, records []inventory.Record, usr user.User, unit catalog.Unit) {
	s.publish(ctx, res, records)

	kind := summaryKind(res.Status)
	if err := s.notifier.Notify(ctx, NewRecipient(usr), NewSummary(kind, res, unit)); err != nil {
		log.Warn().Err(err).
			Uint64("reservationId", res.ID).
			Str("kind", string(kind)).
			Msg("failed to notify user")
	}
}

func (s *service) publish(ctx context.Context, res Reservation, records []inventory.Record) {
	if s.queue != nil {
		if err := s.queue.PublishReservation(ctx, res); err != nil {
			log.Warn().Err(err).Uint64("reservationId", res.ID).Msg("failed to publish reservation to queue")
		}
	}
	if s.inventoryPub != nil && len(records) > 0 {
		s.inventoryPub.PublishInventory(ctx, records)
	}
	go s.notifySubscribers(res)
}

func (s *service) notifySubscribers(r Reservation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- r:
			log.Trace().Interface("clientId", id).Uint64("reservationId", r.ID).Msg("notified subscriber of reservation update")
		default:
			log.Warn().Interface("clientId", id).Msg("subscriber is not keeping up, dropping reservation update")
		}
	}
}

// fitsRooms spreads the party evenly over the requested rooms and checks one
// room's share against the unit's occupancy limits.
func fitsRooms(unit catalog.Unit, adults, children int, rooms int64) bool {
	if rooms < 1 {
		rooms = 1
	}
	return unit.Fits(ceilDiv(adults, rooms), ceilDiv(children, rooms))
}

func ceilDiv(n int, d int64) int {
	if n <= 0 {
		return 0
	}
	return int((int64(n) + d - 1) / d)
}
