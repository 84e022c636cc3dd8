// Package recommender talks to the external PredictionIO-style scoring service:
// ranked queries, interaction events and retraining.
package recommender

import (
	"context"
	"fmt"
	"strings"

	"swapp/api/internal/utils"
)

// App selects which event store an interaction is recorded in.
type App string

const (
	// AppRecommendation feeds the per-user ranking engine.
	AppRecommendation App = "recommendation"
	// AppSimilar feeds the similar-item engine.
	AppSimilar App = "similar"
)

// Entity id prefixes.
const (
	userPrefix     = "u"
	itemPrefix     = "i"
	categoryPrefix = "cat"
)

// DefaultRating is the rating recorded for items in a user's preferred categories.
const DefaultRating = 4.0

// ItemScore is one entry of a ranked query result.
type ItemScore struct {
	ItemID utils.SixID
	Score  float64
}

// Event is the wire form accepted by the event server.
type Event struct {
	Event            string         `json:"event"`
	EntityType       string         `json:"entityType"`
	EntityID         string         `json:"entityId"`
	TargetEntityType string         `json:"targetEntityType,omitempty"`
	TargetEntityID   string         `json:"targetEntityId,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// Client is the scoring service as seen by the application.
type Client interface {
	Query(ctx context.Context, userID utils.SixID, num int) ([]ItemScore, error)
	SendEvent(ctx context.Context, app App, ev Event) error
}

// Trainer rebuilds the scoring models. It is long running.
type Trainer interface {
	Train(ctx context.Context) error
}

func UserEntity(id utils.SixID) string {
	return userPrefix + id.String()
}

func ItemEntity(id utils.SixID) string {
	return itemPrefix + id.String()
}

func CategoryEntity(subcategoryID utils.SixID) string {
	return categoryPrefix + subcategoryID.String()
}

// ParseItemEntity strips the item prefix and parses the id.
func ParseItemEntity(entity string) (utils.SixID, error) {
	if !strings.HasPrefix(entity, itemPrefix) {
		return utils.SixID{}, fmt.Errorf("not an item entity: %q", entity)
	}
	return utils.ParseSixID(strings.TrimPrefix(entity, itemPrefix))
}

// InteractionKind enumerates the events the application records.
type InteractionKind string

const (
	KindSetUser InteractionKind = "set_user"
	KindSetItem InteractionKind = "set_item"
	KindView    InteractionKind = "view"
	KindBuy     InteractionKind = "buy"
	KindRate    InteractionKind = "rate"
)

// Interaction is an application-level event, serialisable into a task payload.
type Interaction struct {
	Kind          InteractionKind `json:"kind"`
	UserID        utils.SixID     `json:"user_id"`
	ItemID        utils.SixID     `json:"item_id"`
	SubcategoryID utils.SixID     `json:"subcategory_id"`
	Rating        float64         `json:"rating,omitempty"`
}

// Route is an Event bound to the store it goes to.
type Route struct {
	App   App
	Event Event
}

// Routes expands an interaction into the events sent to each store.
func (in Interaction) Routes() ([]Route, error) {
	switch in.Kind {
	case KindSetUser:
		ev := Event{Event: "$set", EntityType: "user", EntityID: UserEntity(in.UserID)}
		return []Route{{AppRecommendation, ev}, {AppSimilar, ev}}, nil
	case KindSetItem:
		ev := Event{
			Event:      "$set",
			EntityType: "item",
			EntityID:   ItemEntity(in.ItemID),
			Properties: map[string]any{"categories": []string{CategoryEntity(in.SubcategoryID)}},
		}
		return []Route{{AppRecommendation, ev}, {AppSimilar, ev}}, nil
	case KindView:
		return []Route{{AppSimilar, in.userItemEvent("view", nil)}}, nil
	case KindBuy:
		return []Route{{AppRecommendation, in.userItemEvent("buy", nil)}}, nil
	case KindRate:
		rating := in.Rating
		if rating == 0 {
			rating = DefaultRating
		}
		return []Route{{AppRecommendation, in.userItemEvent("rate", map[string]any{"rating": rating})}}, nil
	default:
		return nil, fmt.Errorf("unknown interaction kind %q", in.Kind)
	}
}

func (in Interaction) userItemEvent(name string, props map[string]any) Event {
	return Event{
		Event:            name,
		EntityType:       "user",
		EntityID:         UserEntity(in.UserID),
		TargetEntityType: "item",
		TargetEntityID:   ItemEntity(in.ItemID),
		Properties:       props,
	}
}

// Record sends every event of the interaction, stopping at the first failure.
func Record(ctx context.Context, c Client, in Interaction) error {
	routes, err := in.Routes()
	if err != nil {
		return err
	}
	for _, r := range routes {
		if err := c.SendEvent(ctx, r.App, r.Event); err != nil {
			return fmt.Errorf("sending %s event to %s: %w", r.Event.Event, r.App, err)
		}
	}
	return nil
}
