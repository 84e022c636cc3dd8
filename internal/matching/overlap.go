// Package matching holds the pure item-matching rules: price band overlap,
// candidate narrowing and location conflict detection.
package matching

import "math"

// MinOverlapRatio is the share of each range that the intersection must cover.
const MinOverlapRatio = 0.15

// PriceRange is a closed price band. Min <= Max.
type PriceRange struct {
	Min float64
	Max float64
}

func (r PriceRange) Len() float64 {
	return r.Max - r.Min
}

func (r PriceRange) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Overlaps reports whether the intersection of a and b covers at least
// MinOverlapRatio of both lengths. Ranges that only touch do not overlap.
// A zero-length range overlaps when it lies inside the other range; two
// zero-length ranges overlap only when equal.
func Overlaps(a, b PriceRange) bool {
	lenA, lenB := a.Len(), b.Len()

	switch {
	case lenA == 0 && lenB == 0:
		return a.Min == b.Min
	case lenA == 0:
		return b.contains(a.Min)
	case lenB == 0:
		return a.contains(b.Min)
	}

	if !(b.Min < a.Max && b.Max > a.Min) {
		return false
	}

	overlap := math.Min(a.Max, b.Max) - math.Max(a.Min, b.Min)
	return overlap >= MinOverlapRatio*lenA && overlap >= MinOverlapRatio*lenB
}
