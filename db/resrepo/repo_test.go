package resrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/db"
	"github.com/sksmith/room-reservation/db/resrepo"
	"github.com/sksmith/room-reservation/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	os.Exit(m.Run())
}

var march1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func reservationRow(id uint64, status string, total string) []interface{} {
	return []interface{}{id, "INV-20240101-ABCDEF12", uint64(2), uint64(3), march1, march1.AddDate(0, 0, 2),
		2, 0, int64(3), total, status, "", march1, march1}
}

func lastCall(t *testing.T, w *test.CallWatcher, funcName string) []interface{} {
	t.Helper()
	calls := w.GetCall(funcName)
	require.NotEmpty(t, calls, "no call to %s", funcName)
	return calls[len(calls)-1]
}

func TestGetReservation(t *testing.T) {
	tests := []struct {
		name    string
		row     db.MockRow
		want    reservation.Reservation
		wantErr error
	}{
		{
			name: "found",
			row:  db.MockRow{Values: reservationRow(7, "PENDING", "600.00")},
			want: reservation.Reservation{
				ID: 7, InvoiceNumber: "INV-20240101-ABCDEF12", UserID: 2, UnitID: 3,
				StartDate: march1, EndDate: march1.AddDate(0, 0, 2), Adults: 2, Quantity: 3,
				TotalPrice: decimal.RequireFromString("600.00"), Status: reservation.Pending, Created: march1, Updated: march1,
			},
		},
		{
			name:    "missing",
			row:     db.MockRow{Err: pgx.ErrNoRows},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "unreadable total",
			row:     db.MockRow{Values: reservationRow(7, "PENDING", "lots")},
			wantErr: errors.New("unreadable total"),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := db.NewMockConn()
			row := test.row
			conn.QueryRowFunc = func(ctx context.Context, sql string, args ...interface{}) pgx.Row { return row }

			got, err := resrepo.NewPostgresRepo(&conn).GetReservation(context.Background(), 7)
			if test.wantErr != nil {
				require.Error(t, err)
				if test.wantErr == core.ErrNotFound {
					assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, test.want.TotalPrice.Equal(got.TotalPrice))
			got.TotalPrice = test.want.TotalPrice
			assert.Equal(t, test.want, got)
		})
	}
}

func TestGetReservationsBuildsFilters(t *testing.T) {
	tests := []struct {
		name       string
		options    reservation.GetReservationsOptions
		wantWhere  string
		wantParams []interface{}
	}{
		{
			name:       "no filter",
			wantWhere:  "FROM reservations  ORDER BY created_at ASC, id ASC LIMIT NULLIF($1::int, 0) OFFSET $2",
			wantParams: []interface{}{10, 20},
		},
		{
			name:       "unit and status",
			options:    reservation.GetReservationsOptions{UnitID: 3, Status: reservation.Confirmed},
			wantWhere:  "WHERE unit_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC LIMIT NULLIF($3::int, 0) OFFSET $4",
			wantParams: []interface{}{uint64(3), reservation.Confirmed, 10, 20},
		},
		{
			name:       "every filter",
			options:    reservation.GetReservationsOptions{UnitID: 3, UserID: 2, Status: reservation.Pending},
			wantWhere:  "WHERE unit_id = $1 AND user_id = $2 AND status = $3 ORDER BY created_at ASC, id ASC LIMIT NULLIF($4::int, 0) OFFSET $5",
			wantParams: []interface{}{uint64(3), uint64(2), reservation.Pending, 10, 20},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := db.NewMockConn()
			conn.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
				return db.NewMockRows(reservationRow(1, "PENDING", "100"), reservationRow(2, "CONFIRMED", "200")), nil
			}

			got, err := resrepo.NewPostgresRepo(&conn).GetReservations(context.Background(), test.options, 10, 20)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, reservation.Confirmed, got[1].Status)

			call := lastCall(t, conn.CallWatcher, "Query")
			assert.Contains(t, call[1].(string), test.wantWhere)
			assert.Equal(t, test.wantParams, call[2])
		})
	}
}

func TestGetOverlappingReservations(t *testing.T) {
	conn := db.NewMockConn()
	tx := db.NewMockTransaction()
	tx.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
		return db.NewMockRows(reservationRow(4, "PENDING", "10")), nil
	}

	repo := resrepo.NewPostgresRepo(&conn)
	got, err := repo.GetOverlappingReservations(context.Background(), 3, march1.Add(6*time.Hour), march1.AddDate(0, 0, 5),
		[]reservation.Status{reservation.Rejected, reservation.Cancelled}, core.QueryOptions{Tx: tx})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(4), got[0].ID)

	call := lastCall(t, tx.CallWatcher, "Query")
	assert.Contains(t, call[1].(string), "start_date < $3 AND end_date > $2")
	assert.Equal(t, []interface{}{uint64(3), march1, march1.AddDate(0, 0, 5), []string{"REJECTED", "CANCELLED"}}, call[2])
	conn.VerifyCount("Query", 0, t)
}

func TestSaveReservation(t *testing.T) {
	conn := db.NewMockConn()
	conn.QueryRowFunc = func(ctx context.Context, sql string, args ...interface{}) pgx.Row {
		return db.MockRow{Values: []interface{}{uint64(11)}}
	}

	r := reservation.Reservation{InvoiceNumber: "INV-1", UserID: 2, UnitID: 3, StartDate: march1, EndDate: march1.AddDate(0, 0, 1),
		Adults: 1, Quantity: 1, TotalPrice: decimal.RequireFromString("99.50"), Status: reservation.Pending}
	require.NoError(t, resrepo.NewPostgresRepo(&conn).SaveReservation(context.Background(), &r))
	assert.Equal(t, uint64(11), r.ID)

	args := lastCall(t, conn.CallWatcher, "QueryRow")[2].([]interface{})
	assert.Equal(t, "99.5", args[8])
}

func TestUpdateReservationStatus(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		execErr error
		wantErr error
	}{
		{name: "updated", tag: "UPDATE 1"},
		{name: "missing", tag: "UPDATE 0", wantErr: core.ErrNotFound},
		{name: "failure", execErr: errors.New("deadlock detected"), wantErr: errors.New("deadlock detected")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := db.NewMockConn()
			conn.ExecFunc = func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
				return pgconn.CommandTag(test.tag), test.execErr
			}

			err := resrepo.NewPostgresRepo(&conn).UpdateReservationStatus(context.Background(), 7, reservation.Cancelled, "plans changed", march1)
			if test.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if test.wantErr == core.ErrNotFound {
				assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
			}
		})
	}
}
