package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
)

type SearchService interface {
	Search(ctx context.Context, query reservation.SearchQuery) (reservation.SearchResult, error)
}

type SearchApi struct {
	service SearchService
}

func NewSearchApi(service SearchService) *SearchApi {
	return &SearchApi{service: service}
}

func (a *SearchApi) ConfigureRouter(r chi.Router) {
	r.Get("/", a.Search)
}

// Search lists hotels matching the destination. Given startDate and endDate
// every unit reports the rooms it has left over the whole stay.
func (a *SearchApi) Search(w http.ResponseWriter, r *http.Request) {
	query, err := searchQuery(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	result, err := a.service.Search(r.Context(), query)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	Render(w, r, &SearchResponse{SearchResult: result})
}

func searchQuery(r *http.Request) (reservation.SearchQuery, error) {
	params := r.URL.Query()
	query := reservation.SearchQuery{Destination: params.Get("destination")}

	var err error
	if v := params.Get("startDate"); v != "" {
		if query.StartDate, err = core.ParseDay(v); err != nil {
			return query, err
		}
	}
	if v := params.Get("endDate"); v != "" {
		if query.EndDate, err = core.ParseDay(v); err != nil {
			return query, err
		}
	}

	ints := []struct {
		name string
		dest *int
	}{
		{"adults", &query.Adults},
		{"children", &query.Children},
		{"page", &query.Page},
		{"limit", &query.Limit},
	}
	for _, p := range ints {
		v := params.Get(p.name)
		if v == "" {
			continue
		}
		if *p.dest, err = strconv.Atoi(v); err != nil {
			return query, errors.Errorf("invalid %s %q", p.name, v)
		}
	}

	if v := params.Get("rooms"); v != "" {
		if query.Rooms, err = strconv.ParseInt(v, 10, 64); err != nil {
			return query, errors.Errorf("invalid rooms %q", v)
		}
	}

	return query, nil
}

type SearchResponse struct {
	reservation.SearchResult
}

func (s *SearchResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
