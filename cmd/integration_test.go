package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/api"
	"github.com/sksmith/room-reservation/config"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/pricing"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/db/memrepo"
	"github.com/sksmith/room-reservation/queue"
	"github.com/sksmith/room-reservation/test"
	"github.com/sksmith/room-reservation/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cfg       *config.Config
	server    *httptest.Server
	publisher *queue.MockPublisher

	double catalog.Unit
	loft   catalog.Unit

	admin = testutil.RequestOptions{Username: "admin", Password: "adminpass"}
	guest = testutil.RequestOptions{Username: "guest", Password: "guestpass"}
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	ctx := context.Background()

	cfg = config.LoadDefaults()
	cfg.Db.InMemory.Value = true
	cfg.RabbitMQ.Mock.Value = true
	cfg.Notify.Mode.Value = "queue"
	cfg.Admin.Pass.Value = admin.Password

	store := memrepo.NewStore()
	seedCatalog(ctx, store)

	publisher = queue.NewMockPublisher()
	app := newApplication(cfg, memRepositories(store), publisher)
	if err := app.ensureAdmin(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to create administrator")
	}
	// a second call finds the administrator and leaves it alone
	if err := app.ensureAdmin(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to find administrator")
	}

	server = httptest.NewServer(app.router(cfg))

	code := m.Run()
	server.Close()
	os.Exit(code)
}

func seedCatalog(ctx context.Context, store *memrepo.Store) {
	hotel := catalog.Company{Name: "Harbour View", Address: "Rua Augusta 1", City: "Lisbon", Type: catalog.Hotel}
	if err := store.Catalog().SaveCompany(ctx, &hotel); err != nil {
		log.Fatal().Err(err).Msg("failed to save company")
	}

	double = catalog.Unit{CompanyID: hotel.ID, Name: "Double", Quantity: 2, CapacityTotal: 3,
		Rates: pricing.Rates{Daily: decimal.NewFromInt(100)}}
	loft = catalog.Unit{CompanyID: hotel.ID, Name: "Loft", Quantity: 1}
	for _, u := range []*catalog.Unit{&double, &loft} {
		if err := store.Catalog().SaveUnit(ctx, u); err != nil {
			log.Fatal().Err(err).Msg("failed to save unit")
		}
	}
}

func host() string {
	return server.URL
}

func unitPath(u catalog.Unit) string {
	return host() + api.ApiPath + api.AvailabilityPath + "/" + strconv.FormatUint(u.ID, 10)
}

func reservationPath(ID uint64) string {
	return host() + api.ApiPath + api.ReservationPath + "/" + strconv.FormatUint(ID, 10)
}

func TestHealth(t *testing.T) {
	res := testutil.Get(host()+"/health", t)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// TestReservationLifecycle walks a stay from booking through confirmation to
// cancellation and checks the calendar moves with it.
func TestReservationLifecycle(t *testing.T) {
	start := core.Day(time.Now()).AddDate(0, 0, 30)
	end := start.AddDate(0, 0, 2)
	from, to := start.Format(core.DateLayout), end.Format(core.DateLayout)

	res := testutil.Post(host()+api.ApiPath+api.UserPath, map[string]interface{}{
		"username": guest.Username, "password": guest.Password, "email": "guest@example.com",
	}, t, admin)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	_ = res.Body.Close()

	booking := api.BookRequest{UnitID: double.ID, StartDate: from, EndDate: to, Adults: 2}
	res = testutil.Put(host()+api.ApiPath+api.ReservationPath, booking, t, guest)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	booked := api.ReservationResponse{}
	testutil.Unmarshal(res, &booked, t)

	assert.Equal(t, reservation.Pending, booked.Status)
	assert.Equal(t, 2, booked.Nights)
	assert.Equal(t, int64(1), booked.Quantity)
	assert.True(t, decimal.NewFromInt(200).Equal(booked.TotalPrice), "total got=%s", booked.TotalPrice)
	assert.NotEmpty(t, booked.InvoiceNumber)

	t.Run("calendar reflects the booking", func(t *testing.T) {
		assertBooked(t, from, to, 1)
	})

	t.Run("search reports the rooms left", func(t *testing.T) {
		res := testutil.Get(host()+api.ApiPath+api.SearchPath+"?destination=lisbon&startDate="+from+"&endDate="+to, t)
		require.Equal(t, http.StatusOK, res.StatusCode)
		got := api.SearchResponse{}
		testutil.Unmarshal(res, &got, t)

		require.Len(t, got.Items, 1)
		assert.True(t, got.Items[0].Available)
		for _, u := range got.Items[0].Units {
			if u.Unit.ID == double.ID {
				assert.Equal(t, int64(1), u.RoomsRemaining)
			}
		}
	})

	t.Run("too many rooms", func(t *testing.T) {
		req := booking
		req.Quantity = 2
		res := testutil.Put(host()+api.ApiPath+api.ReservationPath, req, t, guest)
		defer res.Body.Close()
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("overlapping stay", func(t *testing.T) {
		req := booking
		req.StartDate = start.AddDate(0, 0, 1).Format(core.DateLayout)
		req.EndDate = end.AddDate(0, 0, 1).Format(core.DateLayout)
		res := testutil.Put(host()+api.ApiPath+api.ReservationPath, req, t, guest)
		defer res.Body.Close()
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("unit without a price", func(t *testing.T) {
		req := booking
		req.UnitID = loft.ID
		res := testutil.Put(host()+api.ApiPath+api.ReservationPath, req, t, guest)
		require.Equal(t, http.StatusInternalServerError, res.StatusCode)
		got := api.ErrResponse{}
		testutil.Unmarshal(res, &got, t)
		assert.Contains(t, got.ErrorText, pricing.ErrNoPriceConfigured.Error())
	})

	t.Run("guests cannot confirm", func(t *testing.T) {
		res := testutil.Put(reservationPath(booked.ID)+"/status", api.StatusRequest{Status: "CONFIRMED"}, t, guest)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	res = testutil.Put(reservationPath(booked.ID)+"/status", api.StatusRequest{Status: "CONFIRMED"}, t, admin)
	require.Equal(t, http.StatusOK, res.StatusCode)
	confirmed := api.ReservationResponse{}
	testutil.Unmarshal(res, &confirmed, t)
	assert.Equal(t, reservation.Confirmed, confirmed.Status)

	t.Run("confirmed cannot be rejected", func(t *testing.T) {
		res := testutil.Put(reservationPath(booked.ID)+"/status", api.StatusRequest{Status: "REJECTED"}, t, admin)
		defer res.Body.Close()
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	res = testutil.Post(reservationPath(booked.ID)+"/cancel", api.CancelRequest{Reason: "plans changed"}, t, guest)
	require.Equal(t, http.StatusOK, res.StatusCode)
	cancelled := api.ReservationResponse{}
	testutil.Unmarshal(res, &cancelled, t)
	assert.Equal(t, reservation.Cancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.Reason)

	t.Run("calendar restored", func(t *testing.T) {
		assertBooked(t, from, to, 0)
	})

	t.Run("owner sees the history", func(t *testing.T) {
		res := testutil.Get(host()+api.ApiPath+api.ReservationPath, t, guest)
		require.Equal(t, http.StatusOK, res.StatusCode)
		got := []api.ReservationResponse{}
		testutil.Unmarshal(res, &got, t)
		require.Len(t, got, 1)
		assert.Equal(t, booked.ID, got[0].ID)
	})

	t.Run("changes were published", func(t *testing.T) {
		exchanges := make(map[string]int)
		for _, call := range publisher.GetCall("Publish") {
			exchanges[call[1].(string)]++
		}
		assert.NotZero(t, exchanges[cfg.RabbitMQ.Inventory.Exchange.Value])
		assert.NotZero(t, exchanges[cfg.RabbitMQ.Reservation.Exchange.Value])
		assert.NotZero(t, exchanges[cfg.RabbitMQ.Notification.Exchange.Value])
	})
}

func assertBooked(t *testing.T, from, to string, want int64) {
	t.Helper()

	res := testutil.Get(unitPath(double)+"?from="+from+"&to="+to, t, guest)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := []api.RecordResponse{}
	testutil.Unmarshal(res, &got, t)

	require.Len(t, got, 2)
	for _, rec := range got {
		assert.Equal(t, want, rec.RoomsBooked, rec.Date)
		assert.Equal(t, double.Quantity-want, rec.RoomsRemaining, rec.Date)
	}
}
