package queue

import (
	"context"

	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/test"
)

type MockQueue struct {
	PublishInventoryFunc   func(ctx context.Context, record inventory.Record) error
	PublishReservationFunc func(ctx context.Context, reservation reservation.Reservation) error
	*test.CallWatcher
}

func NewMockQueue() *MockQueue {
	return &MockQueue{
		PublishInventoryFunc: func(ctx context.Context, record inventory.Record) error {
			return nil
		},
		PublishReservationFunc: func(ctx context.Context, reservation reservation.Reservation) error {
			return nil
		},
		CallWatcher: test.NewCallWatcher(),
	}
}

func (m *MockQueue) PublishInventory(ctx context.Context, record inventory.Record) error {
	m.AddCall(ctx, record)
	return m.PublishInventoryFunc(ctx, record)
}

func (m *MockQueue) PublishReservation(ctx context.Context, reservation reservation.Reservation) error {
	m.AddCall(ctx, reservation)
	return m.PublishReservationFunc(ctx, reservation)
}

type MockPublisher struct {
	PublishFunc func(ctx context.Context, exchange string, body []byte) error
	*test.CallWatcher
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishFunc: func(ctx context.Context, exchange string, body []byte) error { return nil },
		CallWatcher: test.NewCallWatcher(),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, exchange string, body []byte) error {
	m.AddCall(ctx, exchange, body)
	return m.PublishFunc(ctx, exchange, body)
}
