package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/api"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearchTestServer() (*httptest.Server, *reservation.MockReservationService) {
	mockSvc := reservation.NewMockReservationService()
	searchApi := api.NewSearchApi(&mockSvc)
	r := chi.NewRouter()
	searchApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func TestSearch(t *testing.T) {
	ts, mockSvc := setupSearchTestServer()
	defer ts.Close()

	rate := decimal.RequireFromString("99.5")
	result := reservation.SearchResult{
		Items: []reservation.CompanyAvailability{{
			Company:   catalog.Company{ID: 1, Name: "Harbour View", City: "Lisbon", Type: catalog.Hotel},
			Units:     []reservation.UnitAvailability{{Unit: catalog.Unit{ID: 4, CompanyID: 1, Name: "Double"}, RoomsRemaining: 3, NightlyRate: &rate}},
			Available: true,
		}},
		Total: 1,
		Page:  1,
		Limit: 10,
	}

	tests := []struct {
		name           string
		query          string
		serviceErr     error
		wantQuery      *reservation.SearchQuery
		wantStatusCode int
	}{
		{
			name:           "destination only",
			query:          "?destination=lisbon",
			wantQuery:      &reservation.SearchQuery{Destination: "lisbon"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "full stay",
			query: "?destination=lisbon&startDate=2024-03-01&endDate=2024-03-04&adults=2&children=1&rooms=2&page=3&limit=5",
			wantQuery: &reservation.SearchQuery{Destination: "lisbon", StartDate: day("2024-03-01"), EndDate: day("2024-03-04"),
				Adults: 2, Children: 1, Rooms: 2, Page: 3, Limit: 5},
			wantStatusCode: http.StatusOK,
		},
		{name: "bad start", query: "?startDate=tomorrow&endDate=2024-03-04", wantStatusCode: http.StatusBadRequest},
		{name: "bad adults", query: "?adults=two", wantStatusCode: http.StatusBadRequest},
		{name: "bad rooms", query: "?rooms=1.5", wantStatusCode: http.StatusBadRequest},
		{
			name:           "rejected by the service",
			query:          "?startDate=2024-03-01",
			serviceErr:     errors.WithMessage(reservation.ErrInvalidRequest, "start and end dates must be given together"),
			wantQuery:      &reservation.SearchQuery{StartDate: day("2024-03-01")},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unexpected",
			serviceErr:     errors.New("connection refused"),
			wantQuery:      &reservation.SearchQuery{},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotQuery *reservation.SearchQuery
			mockSvc.SearchFunc = func(ctx context.Context, query reservation.SearchQuery) (reservation.SearchResult, error) {
				gotQuery = &query
				return result, test.serviceErr
			}

			res := testutil.Get(ts.URL+test.query, t)
			require.Equal(t, test.wantStatusCode, res.StatusCode)

			if test.wantQuery == nil {
				_ = res.Body.Close()
				assert.Nil(t, gotQuery, "service should not be called")
				return
			}
			require.NotNil(t, gotQuery)
			assert.Equal(t, *test.wantQuery, *gotQuery)

			if test.wantStatusCode != http.StatusOK {
				_ = res.Body.Close()
				return
			}

			got := api.SearchResponse{}
			unmarshal(res, &got, t)
			require.Len(t, got.Items, 1)
			assert.Equal(t, "Harbour View", got.Items[0].Company.Name)
			require.Len(t, got.Items[0].Units, 1)
			assert.Equal(t, int64(3), got.Items[0].Units[0].RoomsRemaining)
			require.NotNil(t, got.Items[0].Units[0].NightlyRate)
			assert.True(t, rate.Equal(*got.Items[0].Units[0].NightlyRate))
			assert.Equal(t, 1, got.Total)
		})
	}
}

func TestSearchAncientDates(t *testing.T) {
	ts, mockSvc := setupSearchTestServer()
	defer ts.Close()

	called := false
	mockSvc.SearchFunc = func(ctx context.Context, query reservation.SearchQuery) (reservation.SearchResult, error) {
		called = true
		return reservation.SearchResult{}, nil
	}

	res := testutil.Get(ts.URL+"?destination=sunrise&startDate=0001-01-01&endDate=2024-03-04", t)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	got := api.ErrResponse{}
	unmarshal(res, &got, t)
	assert.Contains(t, got.ErrorText, "dates before 1900 are not supported")
	assert.False(t, called)
}
