package reservation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/pricing"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchQuery filters hotels by destination and, optionally, by a stay they
// can accommodate. Zero values mean "not given".
type SearchQuery struct {
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Adults      int
	Children    int
	Rooms       int64
	Page        int
	Limit       int
}

func (q *SearchQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultSearchLimit
	}
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
	if q.Rooms < 1 {
		q.Rooms = 1
	}
	if !q.StartDate.IsZero() {
		q.StartDate = core.Day(q.StartDate)
	}
	if !q.EndDate.IsZero() {
		q.EndDate = core.Day(q.EndDate)
	}
}

func (q SearchQuery) hasRange() bool {
	return !q.StartDate.IsZero() && !q.EndDate.IsZero()
}

func (q SearchQuery) validate(maxNights int) error {
	if q.StartDate.IsZero() != q.EndDate.IsZero() {
		return errors.WithMessage(ErrInvalidRequest, "start and end dates must be given together")
	}
	if q.hasRange() {
		if err := core.CheckRange(q.StartDate, q.EndDate, maxNights); err != nil {
			return errors.WithMessage(ErrInvalidRequest, err.Error())
		}
	}
	if q.hasRange() && !q.StartDate.Before(q.EndDate) {
		return errors.WithMessagef(ErrInvalidRequest, "end date %s must be after start date %s",
			q.EndDate.Format(core.DateLayout), q.StartDate.Format(core.DateLayout))
	}
	if q.Adults < 0 || q.Children < 0 {
		return errors.WithMessage(ErrInvalidRequest, "party size must not be negative")
	}
	return nil
}

type SearchResult struct {
	Items []CompanyAvailability `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type CompanyAvailability struct {
	Company   catalog.Company    `json:"company"`
	Units     []UnitAvailability `json:"units"`
	Available bool               `json:"available"`
}

// UnitAvailability is a unit that fits the party. RoomsRemaining is the lowest
// remaining count over the requested nights, or the unit's capacity when no
// range was given.
type UnitAvailability struct {
	Unit           catalog.Unit     `json:"unit"`
	RoomsRemaining int64            `json:"roomsRemaining"`
	NightlyRate    *decimal.Decimal `json:"nightlyRate,omitempty"`
	TotalPrice     *decimal.Decimal `json:"totalPrice,omitempty"`
}

func (s *service) Search(ctx context.Context, query SearchQuery) (SearchResult, error) {
	const funcName = "Search"

	query.normalize()

	log.Info().
		Str("func", funcName).
		Str("destination", query.Destination).
		Int("page", query.Page).
		Int("limit", query.Limit).
		Msg("searching")

	if err := query.validate(s.calendar.MaxNights()); err != nil {
		return SearchResult{}, err
	}

	terms := catalog.Terms(query.Destination)
	offset := (query.Page - 1) * query.Limit

	companies, total, err := s.catalog.SearchCompanies(ctx, catalog.CompanyFilter{Type: catalog.Hotel, Terms: terms}, query.Limit, offset)
	if err != nil {
		return SearchResult{}, errors.WithMessage(err, "failed to search companies")
	}

	if total == 0 && len(terms) > 1 {
		log.Debug().Str("func", funcName).Str("term", terms[0]).Msg("no match for all terms, falling back to first term")
		companies, total, err = s.catalog.SearchCompanies(ctx, catalog.CompanyFilter{Type: catalog.Hotel, Terms: terms[:1]}, query.Limit, offset)
		if err != nil {
			return SearchResult{}, errors.WithMessage(err, "failed to search companies")
		}
	}

	result := SearchResult{Items: make([]CompanyAvailability, 0, len(companies)), Total: total, Page: query.Page, Limit: query.Limit}
	for _, c := range companies {
		ca, err := s.companyAvailability(ctx, c, query)
		if err != nil {
			return SearchResult{}, err
		}
		result.Items = append(result.Items, ca)
	}

	return result, nil
}

func (s *service) companyAvailability(ctx context.Context, c catalog.Company, query SearchQuery) (CompanyAvailability, error) {
	units, err := s.catalog.GetCompanyUnits(ctx, c.ID)
	if err != nil {
		return CompanyAvailability{}, errors.WithMessagef(err, "failed to get units of company %d", c.ID)
	}

	ca := CompanyAvailability{Company: c, Units: []UnitAvailability{}}
	for _, u := range units {
		if query.Adults+query.Children > 0 && !fitsRooms(u, query.Adults, query.Children, query.Rooms) {
			continue
		}

		capacity := s.calendar.Capacity(u)
		remaining := capacity
		if query.hasRange() {
			remaining, err = s.minRemaining(ctx, u.ID, query.StartDate, query.EndDate, capacity)
			if err != nil {
				return CompanyAvailability{}, err
			}
		}
		if remaining < query.Rooms {
			continue
		}

		ua := UnitAvailability{Unit: u, RoomsRemaining: remaining}
		if rate, err := u.Nightly(); err == nil {
			ua.NightlyRate = &rate
			if query.hasRange() {
				total := pricing.Total(rate, core.Nights(query.StartDate, query.EndDate), int(query.Rooms))
				ua.TotalPrice = &total
			}
		}
		ca.Units = append(ca.Units, ua)
	}
	ca.Available = len(ca.Units) > 0

	return ca, nil
}

// minRemaining treats dates without a record as fully free.
func (s *service) minRemaining(ctx context.Context, unitID uint64, from, to time.Time, capacity int64) (int64, error) {
	records, err := s.inv.GetInventoryRange(ctx, unitID, from, to)
	if err != nil {
		return 0, errors.WithMessagef(err, "failed to get inventory of unit %d", unitID)
	}

	byDate := make(map[time.Time]inventory.Record, len(records))
	for _, r := range records {
		byDate[core.Day(r.Date)] = r
	}

	min := capacity
	for _, d := range core.EachDay(from, to) {
		remaining := capacity
		if r, ok := byDate[d]; ok {
			remaining = r.RoomsRemaining
		}
		if remaining < min {
			min = remaining
		}
	}
	return min, nil
}
