package inventory

import (
	"context"
	"time"
)

type MockInventoryService struct {
	CreateAvailabilityFunc   func(ctx context.Context, req CreateAvailabilityRequest) (Record, error)
	GenerateCalendarFunc     func(ctx context.Context, unitID uint64, from, to time.Time) (int, error)
	GetCalendarFunc          func(ctx context.Context, unitID uint64, from, to time.Time) ([]Record, error)
	PublishInventoryFunc     func(ctx context.Context, records []Record)
	SubscribeInventoryFunc   func(ch chan<- Record) (id InventorySubID)
	UnsubscribeInventoryFunc func(id InventorySubID)
}

func NewMockInventoryService() MockInventoryService {
	return MockInventoryService{
		CreateAvailabilityFunc: func(ctx context.Context, req CreateAvailabilityRequest) (Record, error) { return Record{}, nil },
		GenerateCalendarFunc:   func(ctx context.Context, unitID uint64, from, to time.Time) (int, error) { return 0, nil },
		GetCalendarFunc: func(ctx context.Context, unitID uint64, from, to time.Time) ([]Record, error) {
			return []Record{}, nil
		},
		PublishInventoryFunc:     func(ctx context.Context, records []Record) {},
		SubscribeInventoryFunc:   func(ch chan<- Record) (id InventorySubID) { return "" },
		UnsubscribeInventoryFunc: func(id InventorySubID) {},
	}
}

func (i *MockInventoryService) CreateAvailability(ctx context.Context, req CreateAvailabilityRequest) (Record, error) {
	return i.CreateAvailabilityFunc(ctx, req)
}

func (i *MockInventoryService) GenerateCalendar(ctx context.Context, unitID uint64, from, to time.Time) (int, error) {
	return i.GenerateCalendarFunc(ctx, unitID, from, to)
}

func (i *MockInventoryService) GetCalendar(ctx context.Context, unitID uint64, from, to time.Time) ([]Record, error) {
	return i.GetCalendarFunc(ctx, unitID, from, to)
}

func (i *MockInventoryService) PublishInventory(ctx context.Context, records []Record) {
	i.PublishInventoryFunc(ctx, records)
}

func (i *MockInventoryService) SubscribeInventory(ch chan<- Record) (id InventorySubID) {
	return i.SubscribeInventoryFunc(ch)
}

func (i *MockInventoryService) UnsubscribeInventory(id InventorySubID) {
	i.UnsubscribeInventoryFunc(id)
}
