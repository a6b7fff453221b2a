package resrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) reservation.Repository {
	return &dbRepo{
		conn: conn,
	}
}

const selectReservation = `SELECT id, invoice_number, user_id, unit_id, start_date, end_date, adults, children, quantity,
	total_price::text, status, reason, created_at, updated_at FROM reservations `

func (d *dbRepo) GetReservation(ctx context.Context, ID uint64, options ...core.QueryOptions) (reservation.Reservation, error) {
	m := db.StartMetric("GetReservation")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	r, err := scanReservation(tx.QueryRow(ctx, selectReservation+`WHERE id = $1 `+forUpdate, ID))
	m.Complete(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, errors.WithStack(core.ErrNotFound)
		}
		return r, errors.WithStack(err)
	}

	return r, nil
}

func (d *dbRepo) GetReservations(ctx context.Context, resOptions reservation.GetReservationsOptions, limit, offset int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	m := db.StartMetric("GetReservations")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	clauses := make([]string, 0, 3)
	params := make([]interface{}, 0, 5)

	if resOptions.UnitID != 0 {
		params = append(params, resOptions.UnitID)
		clauses = append(clauses, fmt.Sprintf("unit_id = $%d", len(params)))
	}
	if resOptions.UserID != 0 {
		params = append(params, resOptions.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(params)))
	}
	if resOptions.Status != reservation.None {
		params = append(params, resOptions.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(params)))
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = "WHERE " + strings.Join(clauses, " AND ")
	}

	params = append(params, limit, offset)
	query := fmt.Sprintf(selectReservation+whereClause+` ORDER BY created_at ASC, id ASC LIMIT NULLIF($%d::int, 0) OFFSET $%d `+forUpdate,
		len(params)-1, len(params))

	return d.query(ctx, m, tx, query, params...)
}

func (d *dbRepo) GetOverlappingReservations(ctx context.Context, unitID uint64, start, end time.Time, exclude []reservation.Status, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	m := db.StartMetric("GetOverlappingReservations")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	excluded := make([]string, 0, len(exclude))
	for _, s := range exclude {
		excluded = append(excluded, string(s))
	}

	query := selectReservation + `WHERE unit_id = $1 AND start_date < $3 AND end_date > $2 AND NOT (status = ANY($4::text[]))
		ORDER BY start_date ASC, id ASC ` + forUpdate

	return d.query(ctx, m, tx, query, unitID, core.Day(start), core.Day(end), excluded)
}

func (d *dbRepo) query(ctx context.Context, m *db.Metric, tx core.Conn, query string, params ...interface{}) ([]reservation.Reservation, error) {
	reservations := make([]reservation.Reservation, 0)
	rows, err := tx.Query(ctx, query, params...)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		reservations = append(reservations, r)
	}

	m.Complete(nil)
	return reservations, nil
}

func (d *dbRepo) SaveReservation(ctx context.Context, r *reservation.Reservation, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveReservation")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO reservations (invoice_number, user_id, unit_id, start_date, end_date, adults, children, quantity,
	                                     total_price, status, reason, created_at, updated_at)
	                             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12, $13) RETURNING id;`
	err := tx.QueryRow(ctx, insert, r.InvoiceNumber, r.UserID, r.UnitID, core.Day(r.StartDate), core.Day(r.EndDate),
		r.Adults, r.Children, r.Quantity, r.TotalPrice.String(), r.Status, r.Reason, r.Created, r.Updated).Scan(&r.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) UpdateReservationStatus(ctx context.Context, ID uint64, status reservation.Status, reason string, updated time.Time, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateReservationStatus")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `UPDATE reservations SET status = $2, reason = $3, updated_at = $4 WHERE id = $1;`,
		ID, status, reason, updated)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		return errors.WithStack(core.ErrNotFound)
	}
	return nil
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return db.BeginTransaction(ctx, d.conn)
}

func scanReservation(row pgx.Row) (reservation.Reservation, error) {
	r := reservation.Reservation{}
	var total string
	err := row.Scan(&r.ID, &r.InvoiceNumber, &r.UserID, &r.UnitID, &r.StartDate, &r.EndDate, &r.Adults, &r.Children,
		&r.Quantity, &total, &r.Status, &r.Reason, &r.Created, &r.Updated)
	if err != nil {
		return reservation.Reservation{}, err
	}

	r.StartDate = core.Day(r.StartDate)
	r.EndDate = core.Day(r.EndDate)
	if r.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return reservation.Reservation{}, errors.WithMessagef(err, "reservation %d has an unreadable total %q", r.ID, total)
	}
	return r, nil
}
