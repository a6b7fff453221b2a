package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core/reservation"
)

type ReservationService interface {
	Book(ctx context.Context, req reservation.BookingRequest) (reservation.Reservation, error)
	UpdateStatus(ctx context.Context, ID uint64, status reservation.Status, reason string) (reservation.Reservation, error)
	Cancel(ctx context.Context, ID uint64, userID uint64, reason string) (reservation.Reservation, error)

	GetReservation(ctx context.Context, ID uint64) (reservation.Reservation, error)
	GetReservations(ctx context.Context, options reservation.GetReservationsOptions, limit, offset int) ([]reservation.Reservation, error)

	SubscribeReservations(ch chan<- reservation.Reservation) (id reservation.ReservationsSubID)
	UnsubscribeReservations(id reservation.ReservationsSubID)
}

type ReservationApi struct {
	service ReservationService
	users   UserAccess
}

func NewReservationApi(service ReservationService, users UserAccess) *ReservationApi {
	return &ReservationApi{service: service, users: users}
}

const (
	CtxKeyReservation CtxKey = "reservation"
)

func (a *ReservationApi) ConfigureRouter(r chi.Router) {
	r.HandleFunc("/subscribe", a.Subscribe)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(a.users))

		r.With(Paginate).Get("/", a.List)
		r.Put("/", a.Book)

		r.Route("/{ID}", func(r chi.Router) {
			r.Use(a.ReservationCtx)
			r.Get("/", a.Get)
			r.With(AdminOnly).Put("/status", a.UpdateStatus)
			r.Post("/cancel", a.Cancel)
		})
	})
}

// Subscribe streams every reservation change to the client.
func (a *ReservationApi) Subscribe(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, func() feed {
		ch := make(chan reservation.Reservation, 1)
		id := a.service.SubscribeReservations(ch)
		return feed{
			clientID: string(id),
			next: func() (interface{}, bool) {
				res, ok := <-ch
				return NewReservationResponse(res), ok
			},
			unsubscribe: func() { a.service.UnsubscribeReservations(id) },
		}
	})
}

func (a *ReservationApi) Book(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)

	data := &BookRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	res, err := a.service.Book(r.Context(), data.toDomain(usr.ID))
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewReservationResponse(res))
}

func (a *ReservationApi) Get(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)

	if usr, _ := CurrentUser(r); !usr.IsAdmin && usr.ID != res.UserID {
		RenderErr(w, r, errors.WithMessagef(reservation.ErrForbidden, "user %d does not own reservation %d", usr.ID, res.ID))
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, NewReservationResponse(res))
}

func (a *ReservationApi) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)

	data := &StatusRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	updated, err := a.service.UpdateStatus(r.Context(), res.ID, data.status, data.Reason)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	Render(w, r, NewReservationResponse(updated))
}

func (a *ReservationApi) Cancel(w http.ResponseWriter, r *http.Request) {
	res := r.Context().Value(CtxKeyReservation).(reservation.Reservation)
	usr, _ := CurrentUser(r)

	// the body may be omitted, the service then rejects the missing reason
	data := &CancelRequest{}
	if r.ContentLength != 0 {
		if err := render.Bind(r, data); err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}
	}

	cancelled, err := a.service.Cancel(r.Context(), res.ID, usr.ID, data.Reason)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	Render(w, r, NewReservationResponse(cancelled))
}

func (a *ReservationApi) ReservationCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IDStr := chi.URLParam(r, "ID")
		if IDStr == "" {
			Render(w, r, ErrInvalidRequest(errors.New("reservation id is required")))
			return
		}

		ID, err := strconv.ParseUint(IDStr, 10, 64)
		if err != nil {
			log.Debug().Err(err).Str("ID", IDStr).Msg("invalid reservation id")
			Render(w, r, ErrInvalidRequest(errors.New("invalid reservation id")))
			return
		}

		res, err := a.service.GetReservation(r.Context(), ID)
		if err != nil {
			RenderErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyReservation, res)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// List returns reservations matching the unitId, userId and status query
// parameters. Users who are not admins only ever see their own.
func (a *ReservationApi) List(w http.ResponseWriter, r *http.Request) {
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	options, err := reservationFilter(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if usr, _ := CurrentUser(r); !usr.IsAdmin {
		options.UserID = usr.ID
	}

	res, err := a.service.GetReservations(r.Context(), options, limit, offset)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	RenderList(w, r, NewReservationListResponse(res))
}

func reservationFilter(r *http.Request) (reservation.GetReservationsOptions, error) {
	var options reservation.GetReservationsOptions
	query := r.URL.Query()

	var err error
	if v := query.Get("unitId"); v != "" {
		if options.UnitID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return options, errors.Errorf("invalid unitId %q", v)
		}
	}
	if v := query.Get("userId"); v != "" {
		if options.UserID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return options, errors.Errorf("invalid userId %q", v)
		}
	}
	if v := query.Get("status"); v != "" {
		if options.Status, err = reservation.ParseStatus(v); err != nil {
			return options, err
		}
	}
	return options, nil
}
