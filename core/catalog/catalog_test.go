package catalog_test

import (
	"testing"

	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hotel zurich", catalog.Normalize("  Hôtel   Zürich "))
	assert.Equal(t, "sao paulo", catalog.Normalize("São Paulo"))
	assert.Equal(t, "", catalog.Normalize("   "))
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"ha", "noi", "beach"}, catalog.Terms("Hà Nội, Beach"))
	assert.Nil(t, catalog.Terms(""))
}

func TestCompanyMatches(t *testing.T) {
	c := catalog.Company{Name: "Grand Hôtel", Address: "1 Rue de la Paix", City: "Paris"}

	assert.True(t, c.Matches(catalog.Terms("hotel paris")))
	assert.True(t, c.Matches(catalog.Terms("rue")))
	assert.False(t, c.Matches(catalog.Terms("hotel lyon")))
	assert.True(t, c.Matches(nil))
}

func TestUnitFits(t *testing.T) {
	tests := []struct {
		name     string
		unit     catalog.Unit
		adults   int
		children int
		want     bool
	}{
		{name: "no capacity data is permissive", unit: catalog.Unit{}, adults: 9, children: 4, want: true},
		{name: "total capacity is enough", unit: catalog.Unit{CapacityTotal: 4}, adults: 2, children: 2, want: true},
		{name: "total capacity exceeded", unit: catalog.Unit{CapacityTotal: 3}, adults: 2, children: 2, want: false},
		{name: "per field limits satisfied", unit: catalog.Unit{CapacityTotal: 2, MaxAdults: 3, MaxChildren: 1}, adults: 3, children: 1, want: true},
		{name: "too many children", unit: catalog.Unit{MaxAdults: 2, MaxChildren: 1}, adults: 2, children: 2, want: false},
		{name: "too many adults", unit: catalog.Unit{MaxAdults: 2, MaxChildren: 2}, adults: 3, children: 0, want: false},
		{name: "children limit unrecorded", unit: catalog.Unit{MaxAdults: 2}, adults: 2, children: 1, want: true},
		{name: "only children limit recorded", unit: catalog.Unit{MaxChildren: 2}, adults: 3, children: 2, want: true},
		{name: "only children limit recorded, exceeded", unit: catalog.Unit{MaxChildren: 2}, adults: 1, children: 3, want: false},
		{name: "total exceeded without per field limits", unit: catalog.Unit{CapacityTotal: 2}, adults: 3, children: 0, want: false},
		{name: "total exceeded but per field limits hold", unit: catalog.Unit{CapacityTotal: 2, MaxAdults: 2, MaxChildren: 1}, adults: 2, children: 1, want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.unit.Fits(test.adults, test.children))
		})
	}
}
