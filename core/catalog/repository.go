package catalog

import (
	"context"

	"github.com/sksmith/room-reservation/core"
)

type CompanyFilter struct {
	Type  CompanyType
	Terms []string
}

type Repository interface {
	GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (Unit, error)
	GetCompanyUnits(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]Unit, error)
	GetCompany(ctx context.Context, id uint64, options ...core.QueryOptions) (Company, error)
	// SearchCompanies returns one page of companies whose search text contains
	// every term, along with the total number of matches.
	SearchCompanies(ctx context.Context, filter CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]Company, int, error)

	SaveCompany(ctx context.Context, company *Company, options ...core.UpdateOptions) error
	SaveUnit(ctx context.Context, unit *Unit, options ...core.UpdateOptions) error
}
