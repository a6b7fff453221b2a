package catrepo

import (
	"context"

	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/test"
)

type MockRepo struct {
	GetUnitFunc         func(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error)
	GetCompanyUnitsFunc func(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error)
	GetCompanyFunc      func(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Company, error)
	SearchCompaniesFunc func(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error)
	SaveCompanyFunc     func(ctx context.Context, company *catalog.Company, options ...core.UpdateOptions) error
	SaveUnitFunc        func(ctx context.Context, unit *catalog.Unit, options ...core.UpdateOptions) error
	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetUnitFunc: func(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error) {
			return catalog.Unit{ID: id}, nil
		},
		GetCompanyUnitsFunc: func(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error) {
			return []catalog.Unit{}, nil
		},
		GetCompanyFunc: func(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Company, error) {
			return catalog.Company{ID: id}, nil
		},
		SearchCompaniesFunc: func(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error) {
			return []catalog.Company{}, 0, nil
		},
		SaveCompanyFunc: func(ctx context.Context, company *catalog.Company, options ...core.UpdateOptions) error { return nil },
		SaveUnitFunc:    func(ctx context.Context, unit *catalog.Unit, options ...core.UpdateOptions) error { return nil },
		CallWatcher:     test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetUnit(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Unit, error) {
	r.AddCall(ctx, id, options)
	return r.GetUnitFunc(ctx, id, options...)
}

func (r *MockRepo) GetCompanyUnits(ctx context.Context, companyID uint64, options ...core.QueryOptions) ([]catalog.Unit, error) {
	r.AddCall(ctx, companyID, options)
	return r.GetCompanyUnitsFunc(ctx, companyID, options...)
}

func (r *MockRepo) GetCompany(ctx context.Context, id uint64, options ...core.QueryOptions) (catalog.Company, error) {
	r.AddCall(ctx, id, options)
	return r.GetCompanyFunc(ctx, id, options...)
}

func (r *MockRepo) SearchCompanies(ctx context.Context, filter catalog.CompanyFilter, limit, offset int, options ...core.QueryOptions) ([]catalog.Company, int, error) {
	r.AddCall(ctx, filter, limit, offset, options)
	return r.SearchCompaniesFunc(ctx, filter, limit, offset, options...)
}

func (r *MockRepo) SaveCompany(ctx context.Context, company *catalog.Company, options ...core.UpdateOptions) error {
	r.AddCall(ctx, company, options)
	return r.SaveCompanyFunc(ctx, company, options...)
}

func (r *MockRepo) SaveUnit(ctx context.Context, unit *catalog.Unit, options ...core.UpdateOptions) error {
	r.AddCall(ctx, unit, options)
	return r.SaveUnitFunc(ctx, unit, options...)
}
