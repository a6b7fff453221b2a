// Package notify delivers reservation summaries to users, either through an
// email/SMS gateway or by publishing them for another service to deliver.
package notify

import (
	"fmt"
	"strings"

	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/reservation"
)

func subject(s reservation.Summary) string {
	switch s.Kind {
	case reservation.PaymentConfirmed:
		return fmt.Sprintf("Reservation %s confirmed", s.InvoiceNumber)
	case reservation.BookingRejected:
		return fmt.Sprintf("Reservation %s rejected", s.InvoiceNumber)
	case reservation.BookingCancelled:
		return fmt.Sprintf("Reservation %s cancelled", s.InvoiceNumber)
	default:
		return fmt.Sprintf("We received your reservation %s", s.InvoiceNumber)
	}
}

func body(r reservation.Recipient, s reservation.Summary) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hello %s,\n\n", r.Username)
	fmt.Fprintf(b, "%s.\n\n", subject(s))
	fmt.Fprintf(b, "Room: %s\n", s.UnitName)
	fmt.Fprintf(b, "Check-in: %s\n", s.StartDate.Format(core.DateLayout))
	fmt.Fprintf(b, "Check-out: %s\n", s.EndDate.Format(core.DateLayout))
	fmt.Fprintf(b, "Nights: %d, rooms: %d\n", s.Nights, s.Quantity)
	fmt.Fprintf(b, "Total: %s\n", s.TotalPrice.StringFixed(2))
	fmt.Fprintf(b, "Status: %s\n", s.Status)
	if s.Reason != "" {
		fmt.Fprintf(b, "Reason: %s\n", s.Reason)
	}
	return b.String()
}

// shortBody fits a single SMS.
func shortBody(s reservation.Summary) string {
	return fmt.Sprintf("%s: %s %s to %s, total %s",
		subject(s), s.UnitName, s.StartDate.Format(core.DateLayout), s.EndDate.Format(core.DateLayout), s.TotalPrice.StringFixed(2))
}
