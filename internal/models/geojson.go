package models

import (
	"swapp/api/internal/geo"
)

// GeoJSON is a GeoJSON Point as stored in MongoDB.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`               // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a Point from latitude/longitude.
func NewGeoPoint(p geo.Point) *GeoJSON {
	return &GeoJSON{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}}
}

// Point returns the coordinates as a geo.Point. ok is false for a nil or malformed value.
func (g *GeoJSON) Point() (p geo.Point, ok bool) {
	if g == nil || len(g.Coordinates) != 2 {
		return geo.Point{}, false
	}
	return geo.Point{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}, true
}
