package matching

import (
	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// PriceOf returns the item's price band.
func PriceOf(it *models.Item) PriceRange {
	return PriceRange{Min: it.PriceMin, Max: it.PriceMax}
}

// OthersAvailable keeps available items not owned by userID.
func OthersAvailable(items []models.Item, userID utils.SixID) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if !it.IsAvailable || it.OwnerID == userID {
			continue
		}
		out = append(out, it)
	}
	return out
}

// WithinRadius keeps items located within radiusKm of origin.
// Items without coordinates are dropped.
func WithinRadius(items []models.Item, origin geo.Point, radiusKm float64) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		p, ok := it.Location.Point()
		if !ok {
			continue
		}
		km, err := geo.DistanceKm(origin, p)
		if err != nil || km > radiusKm {
			continue
		}
		out = append(out, it)
	}
	return out
}

// PriceCompatible keeps items whose price band overlaps the reference item's,
// excluding the reference item itself.
func PriceCompatible(items []models.Item, ref *models.Item) []models.Item {
	refRange := PriceOf(ref)
	out := make([]models.Item, 0, len(items))
	for i := range items {
		if items[i].ID == ref.ID {
			continue
		}
		if Overlaps(refRange, PriceOf(&items[i])) {
			out = append(out, items[i])
		}
	}
	return out
}
