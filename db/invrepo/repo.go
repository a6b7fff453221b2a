package invrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) inventory.Repository {
	return &dbRepo{
		conn: conn,
	}
}

const selectInventory = `SELECT unit_id, date, rooms_available, rooms_booked, rooms_remaining, updated_at FROM inventory `

func (d *dbRepo) GetInventory(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (inventory.Record, error) {
	m := db.StartMetric("GetInventory")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	rec := inventory.Record{}
	err := tx.QueryRow(ctx, selectInventory+`WHERE unit_id = $1 AND date = $2 `+forUpdate, unitID, core.Day(date)).
		Scan(&rec.UnitID, &rec.Date, &rec.RoomsAvailable, &rec.RoomsBooked, &rec.RoomsRemaining, &rec.Updated)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return rec, errors.WithStack(core.ErrNotFound)
		}
		return rec, errors.WithStack(err)
	}

	return rec, nil
}

// GetInventoryRange locks rows in date order when asked to, which is the order
// every writer takes them in.
func (d *dbRepo) GetInventoryRange(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error) {
	m := db.StartMetric("GetInventoryRange")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	records := make([]inventory.Record, 0)
	rows, err := tx.Query(ctx,
		selectInventory+`WHERE unit_id = $1 AND date >= $2 AND date < $3 ORDER BY date ASC `+forUpdate,
		unitID, core.Day(from), core.Day(to))
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := inventory.Record{}
		err = rows.Scan(&rec.UnitID, &rec.Date, &rec.RoomsAvailable, &rec.RoomsBooked, &rec.RoomsRemaining, &rec.Updated)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		rec.Date = core.Day(rec.Date)
		records = append(records, rec)
	}

	m.Complete(nil)
	return records, nil
}

func (d *dbRepo) SaveInventory(ctx context.Context, rec inventory.Record, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveInventory")
	tx := db.GetUpdateOptions(d.conn, options...)

	_, err := tx.Exec(ctx, `
		INSERT INTO inventory (unit_id, date, rooms_available, rooms_booked, rooms_remaining, updated_at)
		              VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (unit_id, date) DO UPDATE
		          SET rooms_available = EXCLUDED.rooms_available,
		              rooms_booked = EXCLUDED.rooms_booked,
		              rooms_remaining = EXCLUDED.rooms_remaining,
		              updated_at = EXCLUDED.updated_at;`,
		rec.UnitID, core.Day(rec.Date), rec.RoomsAvailable, rec.RoomsBooked, rec.RoomsRemaining, rec.Updated)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) CreateInventoryIfAbsent(ctx context.Context, records []inventory.Record, options ...core.UpdateOptions) (int, error) {
	m := db.StartMetric("CreateInventoryIfAbsent")
	tx := db.GetUpdateOptions(d.conn, options...)

	created := 0
	for _, rec := range records {
		ct, err := tx.Exec(ctx, `
			INSERT INTO inventory (unit_id, date, rooms_available, rooms_booked, rooms_remaining, updated_at)
			              VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (unit_id, date) DO NOTHING;`,
			rec.UnitID, core.Day(rec.Date), rec.RoomsAvailable, rec.RoomsBooked, rec.RoomsRemaining, rec.Updated)
		if err != nil {
			m.Complete(err)
			return created, errors.WithStack(err)
		}
		created += int(ct.RowsAffected())
	}

	m.Complete(nil)
	return created, nil
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return db.BeginTransaction(ctx, d.conn)
}
