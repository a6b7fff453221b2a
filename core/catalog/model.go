// Package catalog is the read side of the company and unit directory. Companies
// and their bookable units are managed elsewhere; the reservation engine only
// looks them up.
package catalog

import (
	"github.com/sksmith/room-reservation/core/pricing"
)

type CompanyType string

const (
	Hotel  CompanyType = "hotel"
	Rental CompanyType = "rental"
	Sales  CompanyType = "sales"
)

// Company is a value object. The owner of one or more bookable units.
type Company struct {
	ID         uint64      `json:"id"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	Type       CompanyType `json:"type"`
	SearchText string      `json:"-"`
}

// Unit is a value object. A room type or other rentable entity that carries a
// per-date inventory.
type Unit struct {
	ID        uint64 `json:"id"`
	CompanyID uint64 `json:"companyId"`
	Name      string `json:"name"`
	// Quantity is the default number of rooms available on any date.
	Quantity int64 `json:"quantity"`
	pricing.Rates
	MaxAdults     int `json:"maxAdults"`
	MaxChildren   int `json:"maxChildren"`
	CapacityTotal int `json:"capacityTotal"`
}

// HasCapacityData reports whether any occupancy limit was recorded for the unit.
func (u Unit) HasCapacityData() bool {
	return u.CapacityTotal > 0 || u.MaxAdults > 0 || u.MaxChildren > 0
}

// Fits reports whether a party fits in a single room of this unit. Units with
// no recorded limits accept any party, and a zero per-field limit means that
// field was not recorded.
func (u Unit) Fits(adults, children int) bool {
	if !u.HasCapacityData() {
		return true
	}
	if u.CapacityTotal > 0 && u.CapacityTotal >= adults+children {
		return true
	}
	if u.MaxAdults == 0 && u.MaxChildren == 0 {
		return false
	}
	return within(u.MaxAdults, adults) && within(u.MaxChildren, children)
}

func within(limit, n int) bool {
	return limit == 0 || limit >= n
}
