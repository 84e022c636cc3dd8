package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b PriceRange
		want bool
	}{
		{"disjoint", PriceRange{5000, 6500}, PriceRange{10000, 15000}, false},
		{"identical", PriceRange{5000, 6500}, PriceRange{5000, 6500}, true},
		{"touching", PriceRange{0, 100}, PriceRange{100, 200}, false},
		{"small share of the wider range", PriceRange{0, 100}, PriceRange{85, 1000}, false},
		{"exactly fifteen percent of both", PriceRange{0, 100}, PriceRange{85, 185}, true},
		{"below fifteen percent", PriceRange{0, 100}, PriceRange{86, 186}, false},
		{"nested", PriceRange{0, 100}, PriceRange{20, 40}, true},
		{"point inside", PriceRange{50, 50}, PriceRange{0, 100}, true},
		{"point on closed bound", PriceRange{0, 100}, PriceRange{100, 100}, true},
		{"point outside", PriceRange{150, 150}, PriceRange{0, 100}, false},
		{"equal points", PriceRange{7, 7}, PriceRange{7, 7}, true},
		{"different points", PriceRange{7, 7}, PriceRange{8, 8}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}
