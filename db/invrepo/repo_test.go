package invrepo_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/db"
	"github.com/sksmith/room-reservation/db/invrepo"
	"github.com/sksmith/room-reservation/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	os.Exit(m.Run())
}

var march1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sqlOf(t *testing.T, w *test.CallWatcher, funcName string) string {
	t.Helper()
	calls := w.GetCall(funcName)
	require.NotEmpty(t, calls, "no call to %s", funcName)
	return calls[len(calls)-1][1].(string)
}

func TestGetInventory(t *testing.T) {
	tests := []struct {
		name      string
		row       db.MockRow
		forUpdate bool
		want      inventory.Record
		wantErr   error
	}{
		{
			name: "found",
			row:  db.MockRow{Values: []interface{}{uint64(4), march1.Add(5 * time.Hour), int64(10), int64(3), int64(7), march1}},
			want: inventory.Record{UnitID: 4, Date: march1.Add(5 * time.Hour), RoomsAvailable: 10, RoomsBooked: 3, RoomsRemaining: 7, Updated: march1},
		},
		{
			name:      "locked",
			row:       db.MockRow{Values: []interface{}{uint64(4), march1, int64(10), int64(0), int64(10), march1}},
			forUpdate: true,
			want:      inventory.Record{UnitID: 4, Date: march1, RoomsAvailable: 10, RoomsRemaining: 10, Updated: march1},
		},
		{
			name:    "missing",
			row:     db.MockRow{Err: pgx.ErrNoRows},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "unexpected error",
			row:     db.MockRow{Err: errors.New("connection reset")},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := db.NewMockConn()
			tx := db.NewMockTransaction()
			row := test.row
			conn.QueryRowFunc = func(ctx context.Context, sql string, args ...interface{}) pgx.Row { return row }
			tx.QueryRowFunc = conn.QueryRowFunc

			repo := invrepo.NewPostgresRepo(&conn)

			var options []core.QueryOptions
			if test.forUpdate {
				options = append(options, core.QueryOptions{Tx: tx, ForUpdate: true})
			}

			got, err := repo.GetInventory(context.Background(), 4, march1, options...)
			if test.wantErr != nil {
				require.Error(t, err)
				if errors.Is(test.wantErr, core.ErrNotFound) {
					assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)

			if test.forUpdate {
				conn.VerifyCount("QueryRow", 0, t)
				tx.VerifyCount("QueryRow", 1, t)
				assert.Contains(t, sqlOf(t, tx.CallWatcher, "QueryRow"), "FOR UPDATE")
			} else {
				conn.VerifyCount("QueryRow", 1, t)
				assert.NotContains(t, sqlOf(t, conn.CallWatcher, "QueryRow"), "FOR UPDATE")
			}
		})
	}
}

func TestGetInventoryRange(t *testing.T) {
	conn := db.NewMockConn()
	rows := db.NewMockRows(
		[]interface{}{uint64(4), march1, int64(10), int64(3), int64(7), march1},
		[]interface{}{uint64(4), march1.AddDate(0, 0, 1).Add(2 * time.Hour), int64(10), int64(0), int64(10), march1},
	)
	conn.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) { return rows, nil }

	repo := invrepo.NewPostgresRepo(&conn)
	got, err := repo.GetInventoryRange(context.Background(), 4, march1, march1.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, march1.AddDate(0, 0, 1), got[1].Date)
	assert.Equal(t, int64(7), got[0].RoomsRemaining)

	sql := sqlOf(t, conn.CallWatcher, "Query")
	assert.Contains(t, sql, "ORDER BY date ASC")
	assert.True(t, strings.Contains(sql, "date >= $2 AND date < $3"))

	conn.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
		return &db.MockRows{Data: [][]interface{}{{uint64(4)}}, ScanErr: errors.New("bad row")}, nil
	}
	_, err = repo.GetInventoryRange(context.Background(), 4, march1, march1.AddDate(0, 0, 2))
	assert.Error(t, err)
}

func TestCreateInventoryIfAbsent(t *testing.T) {
	conn := db.NewMockConn()
	tx := db.NewMockTransaction()
	calls := 0
	tx.ExecFunc = func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
		calls++
		if calls == 2 {
			return pgconn.CommandTag("INSERT 0 0"), nil
		}
		return pgconn.CommandTag("INSERT 0 1"), nil
	}

	repo := invrepo.NewPostgresRepo(&conn)
	records := []inventory.Record{
		inventory.NewRecord(4, march1, 10),
		inventory.NewRecord(4, march1.AddDate(0, 0, 1), 10),
		inventory.NewRecord(4, march1.AddDate(0, 0, 2), 10),
	}

	created, err := repo.CreateInventoryIfAbsent(context.Background(), records, core.UpdateOptions{Tx: tx})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	tx.VerifyCount("Exec", 3, t)
	conn.VerifyCount("Exec", 0, t)
	assert.Contains(t, sqlOf(t, tx.CallWatcher, "Exec"), "ON CONFLICT (unit_id, date) DO NOTHING")
}

func TestSaveInventory(t *testing.T) {
	conn := db.NewMockConn()
	repo := invrepo.NewPostgresRepo(&conn)

	require.NoError(t, repo.SaveInventory(context.Background(), inventory.NewRecord(4, march1, 10)))
	assert.Contains(t, sqlOf(t, conn.CallWatcher, "Exec"), "ON CONFLICT (unit_id, date) DO UPDATE")

	conn.ExecFunc = func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
		return nil, errors.New("check constraint violated")
	}
	assert.Error(t, repo.SaveInventory(context.Background(), inventory.NewRecord(4, march1, 10)))
}
