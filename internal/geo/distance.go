// Package geo computes great-circle distances between coordinates.
package geo

import (
	"math"

	"swapp/api/internal/apperr"
)

const (
	EarthRadiusMiles = 3960.0
	EarthRadiusKm    = 6373.0
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Validate checks that both coordinates are finite and in range.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return apperr.Validation("latitude", "must be a finite value between -90 and 90")
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return apperr.Validation("longitude", "must be a finite value between -180 and 180")
	}
	return nil
}

// Distance returns the spherical law of cosines distance between two points
// in miles and kilometres.
func Distance(a, b Point) (miles, km float64, err error) {
	if err := a.Validate(); err != nil {
		return 0, 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, 0, err
	}

	arc := arcLength(a, b)
	return arc * EarthRadiusMiles, arc * EarthRadiusKm, nil
}

// DistanceKm is Distance reduced to kilometres.
func DistanceKm(a, b Point) (float64, error) {
	_, km, err := Distance(a, b)
	return km, err
}

func arcLength(a, b Point) float64 {
	if a == b {
		return 0
	}
	toRad := math.Pi / 180.0

	// Colatitudes.
	phi1 := (90.0 - a.Lat) * toRad
	phi2 := (90.0 - b.Lat) * toRad
	theta1 := a.Lng * toRad
	theta2 := b.Lng * toRad

	cos := math.Sin(phi1)*math.Sin(phi2)*math.Cos(theta1-theta2) + math.Cos(phi1)*math.Cos(phi2)
	// Rounding can push cos a hair past ±1 for identical or antipodal points.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
