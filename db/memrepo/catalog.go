package memrepo

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
)

type CatalogRepo struct {
	*Store
}

func (r *CatalogRepo) GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (u catalog.Unit, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		var ok bool
		u, ok = d.units[id]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return u, err
}

func (r *CatalogRepo) GetCompanyUnits(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error) {
	units := make([]catalog.Unit, 0)
	err := r.read(queryTx(options), func(d *state) error {
		for _, u := range d.units {
			if u.CompanyID == companyID {
				units = append(units, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

func (r *CatalogRepo) GetCompany(ctx context.Context, id uint64, options ...core.QueryOptions) (c catalog.Company, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		var ok bool
		c, ok = d.companies[id]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return c, err
}

func (r *CatalogRepo) SearchCompanies(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error) {
	matched := make([]catalog.Company, 0)
	err := r.read(queryTx(options), func(d *state) error {
		for _, c := range d.companies {
			if filter.Type != "" && c.Type != filter.Type {
				continue
			}
			if c.Matches(filter.Terms) {
				matched = append(matched, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []catalog.Company{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *CatalogRepo) SaveCompany(ctx context.Context, c *catalog.Company, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		c.SearchText = c.BuildSearchText()
		if c.ID == 0 {
			d.companySeq++
			c.ID = d.companySeq
		} else if c.ID > d.companySeq {
			d.companySeq = c.ID
		}
		d.companies[c.ID] = *c
		return nil
	})
}

func (r *CatalogRepo) SaveUnit(ctx context.Context, u *catalog.Unit, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		if _, ok := d.companies[u.CompanyID]; !ok {
			return errors.WithMessagef(core.ErrNotFound, "company %d", u.CompanyID)
		}
		if u.ID == 0 {
			d.unitSeq++
			u.ID = d.unitSeq
		} else if u.ID > d.unitSeq {
			d.unitSeq = u.ID
		}
		d.units[u.ID] = *u
		return nil
	})
}
