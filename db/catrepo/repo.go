// Package catrepo reads companies and their bookable units from postgres.
package catrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/db"

	lru "github.com/hashicorp/golang-lru"
)

type dbRepo struct {
	conn  core.Conn
	units *lru.Cache
}

func NewPostgresRepo(conn core.Conn, cacheSize int) catalog.Repository {
	l, err := lru.New(cacheSize)
	if err != nil {
		log.Warn().Err(err).Int("size", cacheSize).Msg("unable to configure unit cache")
	}
	return &dbRepo{
		conn:  conn,
		units: l,
	}
}

const selectUnit = `SELECT id, company_id, name, quantity,
	daily_price::text, detail_price::text, wholesale_price::text, base_price::text, sale_price::text,
	max_adults, max_children, capacity_total FROM units `

const selectCompany = `SELECT id, name, address, city, type, search_text FROM companies `

// GetUnit serves plain reads from the cache. Reads that join a transaction
// always go to the database so the row lock is taken.
func (d *dbRepo) GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error) {
	if len(options) == 0 {
		if u, ok := d.getcache(id); ok {
			return u, nil
		}
	}

	m := db.StartMetric("GetUnit")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	u, err := scanUnit(tx.QueryRow(ctx, selectUnit+`WHERE id = $1 `+forUpdate, id))
	m.Complete(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Unit{}, errors.WithStack(core.ErrNotFound)
		}
		return catalog.Unit{}, errors.WithStack(err)
	}

	d.cache(u)
	return u, nil
}

func (d *dbRepo) GetCompanyUnits(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error) {
	m := db.StartMetric("GetCompanyUnits")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	units := make([]catalog.Unit, 0)
	rows, err := tx.Query(ctx, selectUnit+`WHERE company_id = $1 ORDER BY id ASC `+forUpdate, companyID)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		units = append(units, u)
	}

	m.Complete(nil)
	return units, nil
}

func (d *dbRepo) GetCompany(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Company, error) {
	m := db.StartMetric("GetCompany")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	c := catalog.Company{}
	err := tx.QueryRow(ctx, selectCompany+`WHERE id = $1 `+forUpdate, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.Type, &c.SearchText)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c, errors.WithStack(core.ErrNotFound)
		}
		return c, errors.WithStack(err)
	}
	return c, nil
}

func (d *dbRepo) SearchCompanies(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error) {
	m := db.StartMetric("SearchCompanies")
	tx, _ := db.GetQueryOptions(d.conn, options...)

	where, params := searchClause(filter)

	total := 0
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM companies `+where, params...).Scan(&total); err != nil {
		m.Complete(err)
		return nil, 0, errors.WithStack(err)
	}

	params = append(params, limit, offset)
	query := fmt.Sprintf(selectCompany+where+` ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d`, len(params)-1, len(params))

	companies := make([]catalog.Company, 0)
	rows, err := tx.Query(ctx, query, params...)
	if err != nil {
		m.Complete(err)
		return nil, 0, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		c := catalog.Company{}
		if err = rows.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.Type, &c.SearchText); err != nil {
			m.Complete(err)
			return nil, 0, errors.WithStack(err)
		}
		companies = append(companies, c)
	}

	m.Complete(nil)
	return companies, total, nil
}

func searchClause(filter catalog.CompanyFilter) (string, []interface{}) {
	clauses := make([]string, 0, len(filter.Terms)+1)
	params := make([]interface{}, 0, len(filter.Terms)+1)

	if filter.Type != "" {
		params = append(params, filter.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(params)))
	}
	for _, term := range filter.Terms {
		params = append(params, "%"+escapeLike(term)+"%")
		clauses = append(clauses, fmt.Sprintf("search_text LIKE $%d", len(params)))
	}

	if len(clauses) == 0 {
		return "", params
	}
	return "WHERE " + strings.Join(clauses, " AND "), params
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func (d *dbRepo) SaveCompany(ctx context.Context, c *catalog.Company, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveCompany")
	tx := db.GetUpdateOptions(d.conn, options...)

	c.SearchText = c.BuildSearchText()

	var err error
	if c.ID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO companies (name, address, city, type, search_text)
			               VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
			c.Name, c.Address, c.City, c.Type, c.SearchText).Scan(&c.ID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE companies
			   SET name = $2, address = $3, city = $4, type = $5, search_text = $6
			 WHERE id = $1;`,
			c.ID, c.Name, c.Address, c.City, c.Type, c.SearchText)
	}
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) SaveUnit(ctx context.Context, u *catalog.Unit, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveUnit")
	tx := db.GetUpdateOptions(d.conn, options...)

	var err error
	if u.ID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO units (company_id, name, quantity, daily_price, detail_price, wholesale_price, base_price, sale_price,
			                   max_adults, max_children, capacity_total)
			           VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11) RETURNING id;`,
			u.CompanyID, u.Name, u.Quantity, u.Daily.String(), u.Detail.String(), u.Wholesale.String(), u.Base.String(), u.Sale.String(),
			u.MaxAdults, u.MaxChildren, u.CapacityTotal).Scan(&u.ID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE units
			   SET company_id = $2, name = $3, quantity = $4, daily_price = $5::numeric, detail_price = $6::numeric,
			       wholesale_price = $7::numeric, base_price = $8::numeric, sale_price = $9::numeric,
			       max_adults = $10, max_children = $11, capacity_total = $12
			 WHERE id = $1;`,
			u.ID, u.CompanyID, u.Name, u.Quantity, u.Daily.String(), u.Detail.String(), u.Wholesale.String(), u.Base.String(), u.Sale.String(),
			u.MaxAdults, u.MaxChildren, u.CapacityTotal)
	}
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}

	d.uncache(u.ID)
	return nil
}

func scanUnit(row pgx.Row) (catalog.Unit, error) {
	u := catalog.Unit{}
	var daily, detail, wholesale, base, sale string
	err := row.Scan(&u.ID, &u.CompanyID, &u.Name, &u.Quantity,
		&daily, &detail, &wholesale, &base, &sale,
		&u.MaxAdults, &u.MaxChildren, &u.CapacityTotal)
	if err != nil {
		return catalog.Unit{}, err
	}

	for _, p := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{daily, &u.Daily}, {detail, &u.Detail}, {wholesale, &u.Wholesale}, {base, &u.Base}, {sale, &u.Sale},
	} {
		if *p.dst, err = decimal.NewFromString(p.raw); err != nil {
			return catalog.Unit{}, errors.WithMessagef(err, "unit %d has an unreadable price %q", u.ID, p.raw)
		}
	}
	return u, nil
}

func (d *dbRepo) cache(u catalog.Unit) {
	if d.units == nil {
		return
	}
	d.units.Add(u.ID, u)
}

func (d *dbRepo) uncache(id uint64) {
	if d.units == nil {
		return
	}
	d.units.Remove(id)
}

func (d *dbRepo) getcache(id uint64) (catalog.Unit, bool) {
	if d.units == nil {
		return catalog.Unit{}, false
	}
	v, ok := d.units.Get(id)
	if !ok {
		return catalog.Unit{}, false
	}
	u, ok := v.(catalog.Unit)
	return u, ok
}
