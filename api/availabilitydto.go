package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
)

// RecordResponse reports the date as a calendar date instead of a timestamp.
type RecordResponse struct {
	inventory.Record
	Date string `json:"date"`
}

func NewRecordResponse(rec inventory.Record) *RecordResponse {
	return &RecordResponse{Record: rec, Date: rec.Date.Format(core.DateLayout)}
}

func (rr *RecordResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewRecordListResponse(records []inventory.Record) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, rec := range records {
		list = append(list, NewRecordResponse(rec))
	}
	return list
}

type AvailabilityRequest struct {
	Date           string `json:"date"`
	RoomsAvailable *int64 `json:"roomsAvailable"`
	RoomsBooked    *int64 `json:"roomsBooked,omitempty"`

	date time.Time
}

func (p *AvailabilityRequest) Bind(_ *http.Request) error {
	if p.Date == "" {
		return errors.New("date is required")
	}
	if p.RoomsAvailable == nil {
		return errors.New("roomsAvailable is required")
	}

	var err error
	p.date, err = core.ParseDay(p.Date)
	return err
}

func (p *AvailabilityRequest) toDomain(unitID uint64) inventory.CreateAvailabilityRequest {
	return inventory.CreateAvailabilityRequest{
		UnitID:         unitID,
		Date:           p.date,
		RoomsAvailable: *p.RoomsAvailable,
		RoomsBooked:    p.RoomsBooked,
	}
}

type CalendarRequest struct {
	From string `json:"from"`
	To   string `json:"to"`

	from time.Time
	to   time.Time
}

func (p *CalendarRequest) Bind(_ *http.Request) error {
	if p.From == "" || p.To == "" {
		return errors.New("from and to are required")
	}

	var err error
	if p.from, err = core.ParseDay(p.From); err != nil {
		return err
	}
	if p.to, err = core.ParseDay(p.To); err != nil {
		return err
	}
	if !p.from.Before(p.to) {
		return errors.Errorf("to %s must be after from %s", p.To, p.From)
	}
	return nil
}

type CalendarResponse struct {
	Created int `json:"created"`
}

func (c *CalendarResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
