package core

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MinYear is the earliest year a calendar date may fall in.
const MinYear = 1900

// DefaultMaxNights bounds the length of any date range the service will
// materialize or scan.
const DefaultMaxNights = 730

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, errors.WithMessagef(err, "invalid date %q, expected %s", v, DateLayout)
	}
	if t.Year() < MinYear {
		return time.Time{}, errors.Errorf("invalid date %q, dates before %d are not supported", v, MinYear)
	}
	return t, nil
}

// EachDay lists every calendar date in the half-open range [from, to).
func EachDay(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	days := make([]time.Time, 0)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Nights is the number of dates in [from, to), zero when the range is empty.
func Nights(from, to time.Time) int {
	n := (Day(to).Unix() - Day(from).Unix()) / secondsPerDay
	if n < 0 {
		return 0
	}
	return int(n)
}

const secondsPerDay = 24 * 60 * 60

// CheckRange rejects ranges with a date before MinYear or spanning more than
// maxNights nights. It does not check the order of from and to.
func CheckRange(from, to time.Time, maxNights int) error {
	if from.Year() < MinYear || to.Year() < MinYear {
		return errors.Errorf("dates before %d are not supported", MinYear)
	}
	if n := Nights(from, to); maxNights > 0 && n > maxNights {
		return errors.Errorf("range of %d nights exceeds the maximum of %d", n, maxNights)
	}
	return nil
}
