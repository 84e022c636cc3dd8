package models

import (
	"time"

	"swapp/api/internal/utils"
)

// User is a marketplace member and their matching preferences.
type User struct {
	Base                `bson:",inline"`
	Name                string        `bson:"name" json:"name"`
	Phone               string        `bson:"phone" json:"phone"`
	LocationLabel       string        `bson:"location_label" json:"location_label"`
	CurrentLocation     *GeoJSON      `bson:"current_location,omitempty" json:"current_location,omitempty"`
	DistanceRangeKm     float64       `bson:"distance_range" json:"distance_range"`
	PreferredCategories []utils.SixID `bson:"preferred_categories" json:"preferred_categories"`
	PreferredTags       []utils.SixID `bson:"preferred_tags" json:"preferred_tags"`
	CreatedAt           time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at" json:"updated_at"`
}

// PushDevice is the single registered push target of a user.
type PushDevice struct {
	Base      `bson:",inline"`
	UserID    utils.SixID `bson:"user_id" json:"user_id"`
	Token     string      `bson:"token" json:"token"`
	Platform  string      `bson:"platform" json:"platform"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}
