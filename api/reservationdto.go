package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
)

// BookRequest is the body of a booking. The user always comes from the
// credentials, never from the body.
type BookRequest struct {
	UnitID    uint64 `json:"unitId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	Quantity  int64  `json:"quantity,omitempty"`

	start time.Time
	end   time.Time
}

func (b *BookRequest) Bind(_ *http.Request) error {
	if b.UnitID == 0 {
		return errors.New("unitId is required")
	}
	if b.StartDate == "" || b.EndDate == "" {
		return errors.New("startDate and endDate are required")
	}

	var err error
	if b.start, err = core.ParseDay(b.StartDate); err != nil {
		return err
	}
	if b.end, err = core.ParseDay(b.EndDate); err != nil {
		return err
	}
	return nil
}

func (b *BookRequest) toDomain(userID uint64) reservation.BookingRequest {
	return reservation.BookingRequest{
		UserID:    userID,
		UnitID:    b.UnitID,
		StartDate: b.start,
		EndDate:   b.end,
		Adults:    b.Adults,
		Children:  b.Children,
		Quantity:  b.Quantity,
	}
}

type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`

	status reservation.Status
}

func (s *StatusRequest) Bind(_ *http.Request) error {
	var err error
	if s.status, err = reservation.ParseStatus(s.Status); err != nil {
		return err
	}
	if s.status == reservation.None {
		return errors.New("status is required")
	}
	return nil
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (c *CancelRequest) Bind(_ *http.Request) error {
	return nil
}

// ReservationResponse reports the stay as calendar dates instead of
// timestamps.
type ReservationResponse struct {
	reservation.Reservation
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Nights    int    `json:"nights"`
}

func NewReservationResponse(res reservation.Reservation) *ReservationResponse {
	return &ReservationResponse{
		Reservation: res,
		StartDate:   res.StartDate.Format(core.DateLayout),
		EndDate:     res.EndDate.Format(core.DateLayout),
		Nights:      res.Nights(),
	}
}

func (r *ReservationResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewReservationListResponse(reservations []reservation.Reservation) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, res := range reservations {
		list = append(list, NewReservationResponse(res))
	}

	return list
}
