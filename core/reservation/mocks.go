package reservation

import (
	"context"
)

type MockReservationService struct {
	BookFunc                    func(ctx context.Context, req BookingRequest) (Reservation, error)
	UpdateStatusFunc            func(ctx context.Context, ID uint64, status Status, reason string) (Reservation, error)
	CancelFunc                  func(ctx context.Context, ID uint64, userID uint64, reason string) (Reservation, error)
	GetReservationFunc          func(ctx context.Context, ID uint64) (Reservation, error)
	GetReservationsFunc         func(ctx context.Context, options GetReservationsOptions, limit, offset int) ([]Reservation, error)
	SearchFunc                  func(ctx context.Context, query SearchQuery) (SearchResult, error)
	SubscribeReservationsFunc   func(ch chan<- Reservation) (id ReservationsSubID)
	UnsubscribeReservationsFunc func(id ReservationsSubID)
}

func NewMockReservationService() MockReservationService {
	return MockReservationService{
		BookFunc: func(ctx context.Context, req BookingRequest) (Reservation, error) { return Reservation{}, nil },
		UpdateStatusFunc: func(ctx context.Context, ID uint64, status Status, reason string) (Reservation, error) {
			return Reservation{}, nil
		},
		CancelFunc: func(ctx context.Context, ID uint64, userID uint64, reason string) (Reservation, error) {
			return Reservation{}, nil
		},
		GetReservationFunc: func(ctx context.Context, ID uint64) (Reservation, error) { return Reservation{}, nil },
		GetReservationsFunc: func(ctx context.Context, options GetReservationsOptions, limit, offset int) ([]Reservation, error) {
			return []Reservation{}, nil
		},
		SearchFunc:                  func(ctx context.Context, query SearchQuery) (SearchResult, error) { return SearchResult{}, nil },
		SubscribeReservationsFunc:   func(ch chan<- Reservation) (id ReservationsSubID) { return "" },
		UnsubscribeReservationsFunc: func(id ReservationsSubID) {},
	}
}

func (r *MockReservationService) Book(ctx context.Context, req BookingRequest) (Reservation, error) {
	return r.BookFunc(ctx, req)
}

func (r *MockReservationService) UpdateStatus(ctx context.Context, ID uint64, status Status, reason string) (Reservation, error) {
	return r.UpdateStatusFunc(ctx, ID, status, reason)
}

func (r *MockReservationService) Cancel(ctx context.Context, ID uint64, userID uint64, reason string) (Reservation, error) {
	return r.CancelFunc(ctx, ID, userID, reason)
}

func (r *MockReservationService) GetReservation(ctx context.Context, ID uint64) (Reservation, error) {
	return r.GetReservationFunc(ctx, ID)
}

func (r *MockReservationService) GetReservations(ctx context.Context, options GetReservationsOptions, limit, offset int) ([]Reservation, error) {
	return r.GetReservationsFunc(ctx, options, limit, offset)
}

func (r *MockReservationService) Search(ctx context.Context, query SearchQuery) (SearchResult, error) {
	return r.SearchFunc(ctx, query)
}

func (r *MockReservationService) SubscribeReservations(ch chan<- Reservation) (id ReservationsSubID) {
	return r.SubscribeReservationsFunc(ch)
}

func (r *MockReservationService) UnsubscribeReservations(id ReservationsSubID) {
	r.UnsubscribeReservationsFunc(id)
}
