package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/gobwas/ws"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/api"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(v string) time.Time {
	d, err := core.ParseDay(v)
	if err != nil {
		panic(err)
	}
	return d
}

func int64Ptr(v int64) *int64 {
	return &v
}

func setupAvailabilityTestServer() (*httptest.Server, *inventory.MockInventoryService) {
	mockSvc := inventory.NewMockInventoryService()
	availApi := api.NewAvailabilityApi(&mockSvc, mockUsers())
	r := chi.NewRouter()
	availApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func TestAvailabilitySubscribe(t *testing.T) {
	mockSvc := inventory.NewMockInventoryService()

	records := []inventory.Record{
		inventory.NewRecord(4, day("2024-03-01"), 10),
		inventory.NewRecord(4, day("2024-03-02"), 10),
		inventory.NewRecord(4, day("2024-03-03"), 8),
	}
	unsubscribed := make(chan inventory.InventorySubID, 2)

	mockSvc.SubscribeInventoryFunc = func(ch chan<- inventory.Record) (id inventory.InventorySubID) {
		go func() {
			for _, rec := range records {
				ch <- rec
			}
			close(ch)
		}()
		return "subid1"
	}
	mockSvc.UnsubscribeInventoryFunc = func(id inventory.InventorySubID) {
		unsubscribed <- id
	}

	availApi := api.NewAvailabilityApi(&mockSvc, mockUsers())
	r := chi.NewRouter()
	availApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/subscribe"
	conn, _, _, err := ws.DefaultDialer.Dial(context.Background(), url)
	require.NoError(t, err)
	defer conn.Close()

	for i, want := range records {
		got := &api.RecordResponse{}
		testutil.ReadWs(conn, got, t)

		assert.Equal(t, want.Date.Format(core.DateLayout), got.Date, "message %d", i)
		assert.Equal(t, want.RoomsRemaining, got.RoomsRemaining, "message %d", i)
	}

	select {
	case id := <-unsubscribed:
		assert.Equal(t, inventory.InventorySubID("subid1"), id)
	case <-time.After(2 * time.Second):
		t.Errorf("unsubscribe never called")
	}
}

func TestAvailabilityCreate(t *testing.T) {
	ts, mockSvc := setupAvailabilityTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		unitID         string
		request        interface{}
		options        []testutil.RequestOptions
		serviceErr     error
		wantRequest    *inventory.CreateAvailabilityRequest
		wantStatusCode int
	}{
		{
			name:    "created",
			unitID:  "4",
			request: &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12)},
			options: []testutil.RequestOptions{asAdmin},
			wantRequest: &inventory.CreateAvailabilityRequest{
				UnitID: 4, Date: day("2024-03-01"), RoomsAvailable: 12,
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:    "booked override",
			unitID:  "4",
			request: &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12), RoomsBooked: int64Ptr(3)},
			options: []testutil.RequestOptions{asAdmin},
			wantRequest: &inventory.CreateAvailabilityRequest{
				UnitID: 4, Date: day("2024-03-01"), RoomsAvailable: 12, RoomsBooked: int64Ptr(3),
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "not an admin",
			unitID:         "4",
			request:        &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12)},
			options:        []testutil.RequestOptions{asGuest},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "no credentials",
			unitID:         "4",
			request:        &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12)},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing rooms",
			unitID:         "4",
			request:        map[string]string{"date": "2024-03-01"},
			options:        []testutil.RequestOptions{asAdmin},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad date",
			unitID:         "4",
			request:        &api.AvailabilityRequest{Date: "03/01/2024", RoomsAvailable: int64Ptr(12)},
			options:        []testutil.RequestOptions{asAdmin},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad unit id",
			unitID:         "abc",
			request:        &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12)},
			options:        []testutil.RequestOptions{asAdmin},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown unit",
			unitID:         "99",
			request:        &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(12)},
			options:        []testutil.RequestOptions{asAdmin},
			serviceErr:     errors.WithStack(core.ErrNotFound),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "below booked",
			unitID:         "4",
			request:        &api.AvailabilityRequest{Date: "2024-03-01", RoomsAvailable: int64Ptr(1)},
			options:        []testutil.RequestOptions{asAdmin},
			serviceErr:     errors.WithMessage(inventory.ErrInvalidInventory, "rooms booked (3) exceed rooms available (1)"),
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotRequest *inventory.CreateAvailabilityRequest
			mockSvc.CreateAvailabilityFunc = func(ctx context.Context, req inventory.CreateAvailabilityRequest) (inventory.Record, error) {
				gotRequest = &req
				if test.serviceErr != nil {
					return inventory.Record{}, test.serviceErr
				}
				rec := inventory.NewRecord(req.UnitID, req.Date, req.RoomsAvailable)
				if req.RoomsBooked != nil {
					rec.RoomsBooked = *req.RoomsBooked
					rec.Recompute()
				}
				return rec, nil
			}

			res := testutil.Put(ts.URL+"/"+test.unitID, test.request, t, test.options...)
			defer res.Body.Close()
			require.Equal(t, test.wantStatusCode, res.StatusCode)

			if test.wantRequest != nil {
				require.NotNil(t, gotRequest)
				assert.Equal(t, *test.wantRequest, *gotRequest)

				got := &api.RecordResponse{}
				unmarshal(res, got, t)
				assert.Equal(t, "2024-03-01", got.Date)
				assert.Equal(t, got.RoomsAvailable-got.RoomsBooked, got.RoomsRemaining)
			}
			if test.wantStatusCode == http.StatusUnauthorized || (test.wantStatusCode == http.StatusBadRequest && test.serviceErr == nil) {
				assert.Nil(t, gotRequest, "service should not be called")
			}
		})
	}
}

func TestAvailabilityGenerateCalendar(t *testing.T) {
	ts, mockSvc := setupAvailabilityTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		request        *api.CalendarRequest
		wantStatusCode int
		wantCreated    int
	}{
		{name: "generated", request: &api.CalendarRequest{From: "2024-03-01", To: "2024-03-08"}, wantStatusCode: http.StatusCreated, wantCreated: 7},
		{name: "empty range", request: &api.CalendarRequest{From: "2024-03-08", To: "2024-03-01"}, wantStatusCode: http.StatusBadRequest},
		{name: "missing to", request: &api.CalendarRequest{From: "2024-03-08"}, wantStatusCode: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotFrom, gotTo time.Time
			mockSvc.GenerateCalendarFunc = func(ctx context.Context, unitID uint64, from, to time.Time) (int, error) {
				gotFrom, gotTo = from, to
				return core.Nights(from, to), nil
			}

			res := testutil.Post(ts.URL+"/4/calendar", test.request, t, asAdmin)
			defer res.Body.Close()
			require.Equal(t, test.wantStatusCode, res.StatusCode)

			if test.wantStatusCode == http.StatusCreated {
				got := &api.CalendarResponse{}
				unmarshal(res, got, t)
				assert.Equal(t, test.wantCreated, got.Created)
				assert.Equal(t, day(test.request.From), gotFrom)
				assert.Equal(t, day(test.request.To), gotTo)
			}
		})
	}
}

func TestAvailabilityGetCalendar(t *testing.T) {
	ts, mockSvc := setupAvailabilityTestServer()
	defer ts.Close()

	today := core.Day(time.Now())

	tests := []struct {
		name           string
		query          string
		serviceErr     error
		wantFrom       time.Time
		wantTo         time.Time
		wantStatusCode int
	}{
		{name: "explicit range", query: "?from=2024-03-01&to=2024-03-04", wantFrom: day("2024-03-01"), wantTo: day("2024-03-04"), wantStatusCode: http.StatusOK},
		{name: "defaults", wantFrom: today, wantTo: today.AddDate(0, 0, api.DefaultCalendarDays), wantStatusCode: http.StatusOK},
		{name: "from only", query: "?from=2024-03-01", wantFrom: day("2024-03-01"), wantTo: day("2024-03-31"), wantStatusCode: http.StatusOK},
		{name: "bad date", query: "?from=yesterday", wantStatusCode: http.StatusBadRequest},
		{name: "empty range", query: "?from=2024-03-04&to=2024-03-01", wantStatusCode: http.StatusBadRequest},
		{name: "unknown unit", query: "?from=2024-03-01&to=2024-03-04", serviceErr: core.ErrNotFound, wantStatusCode: http.StatusNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotFrom, gotTo time.Time
			mockSvc.GetCalendarFunc = func(ctx context.Context, unitID uint64, from, to time.Time) ([]inventory.Record, error) {
				gotFrom, gotTo = from, to
				if test.serviceErr != nil {
					return nil, test.serviceErr
				}
				records := make([]inventory.Record, 0)
				for _, d := range core.EachDay(from, to) {
					records = append(records, inventory.NewRecord(unitID, d, 10))
				}
				return records, nil
			}

			res := testutil.Get(ts.URL+"/4"+test.query, t, asGuest)
			defer res.Body.Close()
			require.Equal(t, test.wantStatusCode, res.StatusCode)

			if test.wantStatusCode == http.StatusOK {
				assert.Equal(t, test.wantFrom, gotFrom)
				assert.Equal(t, test.wantTo, gotTo)

				got := []api.RecordResponse{}
				unmarshal(res, &got, t)
				require.Len(t, got, core.Nights(test.wantFrom, test.wantTo))
				assert.Equal(t, test.wantFrom.Format(core.DateLayout), got[0].Date)
			}
		})
	}
}
