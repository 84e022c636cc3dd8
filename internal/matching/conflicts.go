package matching

import (
	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// DefaultConflictRadiusKm is how far an item may sit from its owner before it is flagged.
const DefaultConflictRadiusKm = 50.0

type ConflictReason string

const (
	ReasonMissingLocation ConflictReason = "missing_location"
	ReasonTooFar          ConflictReason = "too_far"
)

// Conflict flags an available item whose stored location disagrees with its owner's.
type Conflict struct {
	ItemID     utils.SixID    `json:"item_id"`
	Reason     ConflictReason `json:"reason"`
	DistanceKm *float64       `json:"distance_km,omitempty"`
}

// DetectConflicts checks every available item against the owner's current location.
func DetectConflicts(items []models.Item, current geo.Point, radiusKm float64) []Conflict {
	var out []Conflict
	for _, it := range items {
		if !it.IsAvailable {
			continue
		}
		p, ok := it.Location.Point()
		if !ok {
			out = append(out, Conflict{ItemID: it.ID, Reason: ReasonMissingLocation})
			continue
		}
		km, err := geo.DistanceKm(current, p)
		if err != nil {
			out = append(out, Conflict{ItemID: it.ID, Reason: ReasonMissingLocation})
			continue
		}
		if km > radiusKm {
			d := km
			out = append(out, Conflict{ItemID: it.ID, Reason: ReasonTooFar, DistanceKm: &d})
		}
	}
	return out
}
