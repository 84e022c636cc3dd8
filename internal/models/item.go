package models

import (
	"time"

	"swapp/api/internal/utils"
)

// Item is something a user offers for swapping.
type Item struct {
	Base          `bson:",inline"`
	OwnerID       utils.SixID   `bson:"owner_id" json:"owner_id"`
	Name          string        `bson:"name" json:"name"`
	Description   string        `bson:"description" json:"description"`
	Condition     string        `bson:"condition" json:"condition"`
	Photo         string        `bson:"photo,omitempty" json:"photo,omitempty"`
	PriceMin      float64       `bson:"price_min" json:"price_min"`
	PriceMax      float64       `bson:"price_max" json:"price_max"`
	Location      *GeoJSON      `bson:"location,omitempty" json:"location,omitempty"`
	IsAvailable   bool          `bson:"is_available" json:"is_available"`
	SubcategoryID utils.SixID   `bson:"subcategory_id" json:"subcategory_id"`
	Tags          []utils.SixID `bson:"tags" json:"tags"`
	DatePosted    time.Time     `bson:"date_posted" json:"date_posted"`
}
