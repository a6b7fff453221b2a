package invrepo

import (
	"context"
	"time"

	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/db"
	"github.com/sksmith/room-reservation/test"
)

type MockRepo struct {
	GetInventoryFunc            func(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (inventory.Record, error)
	GetInventoryRangeFunc       func(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error)
	SaveInventoryFunc           func(ctx context.Context, record inventory.Record, options ...core.UpdateOptions) error
	CreateInventoryIfAbsentFunc func(ctx context.Context, records []inventory.Record, options ...core.UpdateOptions) (int, error)
	BeginTransactionFunc        func(ctx context.Context) (core.Transaction, error)
	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetInventoryFunc: func(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (inventory.Record, error) {
			return inventory.Record{}, core.ErrNotFound
		},
		GetInventoryRangeFunc: func(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error) {
			return []inventory.Record{}, nil
		},
		SaveInventoryFunc: func(ctx context.Context, record inventory.Record, options ...core.UpdateOptions) error { return nil },
		CreateInventoryIfAbsentFunc: func(ctx context.Context, records []inventory.Record, options ...core.UpdateOptions) (int, error) {
			return len(records), nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
		CallWatcher:          test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetInventory(ctx context.Context, unitID uint64, date time.Time, options ...core.QueryOptions) (inventory.Record, error) {
	r.AddCall(ctx, unitID, date, options)
	return r.GetInventoryFunc(ctx, unitID, date, options...)
}

func (r *MockRepo) GetInventoryRange(ctx context.Context, unitID uint64, from, to time.Time, options ...core.QueryOptions) ([]inventory.Record, error) {
	r.AddCall(ctx, unitID, from, to, options)
	return r.GetInventoryRangeFunc(ctx, unitID, from, to, options...)
}

func (r *MockRepo) SaveInventory(ctx context.Context, record inventory.Record, options ...core.UpdateOptions) error {
	r.AddCall(ctx, record, options)
	return r.SaveInventoryFunc(ctx, record, options...)
}

func (r *MockRepo) CreateInventoryIfAbsent(ctx context.Context, records []inventory.Record, options ...core.UpdateOptions) (int, error) {
	r.AddCall(ctx, records, options)
	return r.CreateInventoryIfAbsentFunc(ctx, records, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}
