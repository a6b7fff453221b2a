package reservation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/user"
)

type SummaryKind string

const (
	BookingReceived  SummaryKind = "BOOKING_RECEIVED"
	PaymentConfirmed SummaryKind = "PAYMENT_CONFIRMED"
	BookingRejected  SummaryKind = "BOOKING_REJECTED"
	BookingCancelled SummaryKind = "BOOKING_CANCELLED"
)

type Recipient struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Summary is what a user is told about a reservation.
type Summary struct {
	Kind          SummaryKind     `json:"kind"`
	ReservationID uint64          `json:"reservationId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	UnitID        uint64          `json:"unitId"`
	UnitName      string          `json:"unitName"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Nights        int             `json:"nights"`
	Quantity      int64           `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        Status          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
}

// Notifier delivers a reservation summary by email and/or SMS.
type Notifier interface {
	Notify(ctx context.Context, recipient Recipient, summary Summary) error
}

func NewRecipient(u user.User) Recipient {
	r := Recipient{UserID: u.ID, Username: u.Username}
	if u.HasEmail() {
		r.Email = u.Email
	}
	if u.HasPhone() {
		r.Phone = u.Phone
	}
	return r
}

func NewSummary(kind SummaryKind, res Reservation, unit catalog.Unit) Summary {
	return Summary{
		Kind:          kind,
		ReservationID: res.ID,
		InvoiceNumber: res.InvoiceNumber,
		UnitID:        res.UnitID,
		UnitName:      unit.Name,
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
		Nights:        res.Nights(),
		Quantity:      res.Quantity,
		TotalPrice:    res.TotalPrice,
		Status:        res.Status,
		Reason:        res.Reason,
	}
}

func summaryKind(s Status) SummaryKind {
	switch s {
	case Confirmed:
		return PaymentConfirmed
	case Rejected:
		return BookingRejected
	case Cancelled:
		return BookingCancelled
	default:
		return BookingReceived
	}
}

type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, recipient Recipient, summary Summary) error {
	log.Info().
		Uint64("userId", recipient.UserID).
		Str("kind", string(summary.Kind)).
		Uint64("reservationId", summary.ReservationID).
		Msg("notification not sent, no notifier configured")
	return nil
}
