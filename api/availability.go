package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
)

type AvailabilityService interface {
	CreateAvailability(ctx context.Context, req inventory.CreateAvailabilityRequest) (inventory.Record, error)
	GenerateCalendar(ctx context.Context, unitID uint64, from, to time.Time) (int, error)
	GetCalendar(ctx context.Context, unitID uint64, from, to time.Time) ([]inventory.Record, error)

	SubscribeInventory(ch chan<- inventory.Record) (id inventory.InventorySubID)
	UnsubscribeInventory(id inventory.InventorySubID)
}

// DefaultCalendarDays is how far GetCalendar looks ahead when no end date is
// given.
const DefaultCalendarDays = 30

type AvailabilityApi struct {
	service AvailabilityService
	users   UserAccess
}

func NewAvailabilityApi(service AvailabilityService, users UserAccess) *AvailabilityApi {
	return &AvailabilityApi{service: service, users: users}
}

const (
	CtxKeyUnitID CtxKey = "unitId"
)

func (a *AvailabilityApi) ConfigureRouter(r chi.Router) {
	r.HandleFunc("/subscribe", a.Subscribe)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(a.users))

		r.Route("/{unitID}", func(r chi.Router) {
			r.Use(UnitCtx)
			r.Get("/", a.GetCalendar)
			r.With(AdminOnly).Put("/", a.CreateAvailability)
			r.With(AdminOnly).Post("/calendar", a.GenerateCalendar)
		})
	})
}

// Subscribe streams every committed inventory change to the client.
func (a *AvailabilityApi) Subscribe(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, func() feed {
		ch := make(chan inventory.Record, 1)
		id := a.service.SubscribeInventory(ch)
		return feed{
			clientID: string(id),
			next: func() (interface{}, bool) {
				rec, ok := <-ch
				return NewRecordResponse(rec), ok
			},
			unsubscribe: func() { a.service.UnsubscribeInventory(id) },
		}
	})
}

func UnitCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "unitID")
		if idStr == "" {
			Render(w, r, ErrInvalidRequest(errors.New("unit id is required")))
			return
		}

		unitID, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil || unitID == 0 {
			Render(w, r, ErrInvalidRequest(errors.Errorf("invalid unit id %q", idStr)))
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyUnitID, unitID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AvailabilityApi) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	unitID := r.Context().Value(CtxKeyUnitID).(uint64)

	data := &AvailabilityRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec, err := a.service.CreateAvailability(r.Context(), data.toDomain(unitID))
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewRecordResponse(rec))
}

func (a *AvailabilityApi) GenerateCalendar(w http.ResponseWriter, r *http.Request) {
	unitID := r.Context().Value(CtxKeyUnitID).(uint64)

	data := &CalendarRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	created, err := a.service.GenerateCalendar(r.Context(), unitID, data.from, data.to)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	log.Info().Uint64("unitId", unitID).Int("created", created).Msg("calendar generated")
	render.Status(r, http.StatusCreated)
	Render(w, r, &CalendarResponse{Created: created})
}

func (a *AvailabilityApi) GetCalendar(w http.ResponseWriter, r *http.Request) {
	unitID := r.Context().Value(CtxKeyUnitID).(uint64)

	from, to, err := calendarRange(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	records, err := a.service.GetCalendar(r.Context(), unitID, from, to)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	RenderList(w, r, NewRecordListResponse(records))
}

func calendarRange(r *http.Request) (from, to time.Time, err error) {
	from = core.Day(time.Now())
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = core.ParseDay(v); err != nil {
			return from, to, err
		}
	}

	to = from.AddDate(0, 0, DefaultCalendarDays)
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = core.ParseDay(v); err != nil {
			return from, to, err
		}
	}

	if !from.Before(to) {
		return from, to, errors.Errorf("to %s must be after from %s", to.Format(core.DateLayout), from.Format(core.DateLayout))
	}
	return from, to, nil
}
