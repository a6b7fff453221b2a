package reservation

import (
	"strings"

	"github.com/pkg/errors"
)

type Status string

const (
	Pending   Status = "PENDING"
	Confirmed Status = "CONFIRMED"
	Rejected  Status = "REJECTED"
	Cancelled Status = "CANCELLED"
	None      Status = ""
)

var transitions = map[Status][]Status{
	Pending:   {Confirmed, Rejected, Cancelled},
	Confirmed: {Cancelled},
	Rejected:  {},
	Cancelled: {},
}

func ParseStatus(v string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(v))); s {
	case Pending, Confirmed, Rejected, Cancelled, None:
		return s, nil
	default:
		return None, errors.WithMessagef(ErrInvalidRequest, "invalid reservation status %q", v)
	}
}

// CanTransition reports whether a reservation may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal statuses have no way out.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Restitutes reports whether entering s gives the reserved rooms back.
func (s Status) Restitutes() bool {
	return s == Rejected || s == Cancelled
}

// Occupying statuses hold inventory and block overlapping bookings.
func (s Status) Occupying() bool {
	return s == Pending || s == Confirmed
}
