package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/apperr"
	"swapp/api/internal/geo"
	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// ItemHandler serves item CRUD, recommendations and location conflicts.
type ItemHandler struct {
	items      services.IItemService
	candidates services.ICandidateService
	conflicts  services.IConflictService
}

func NewItemHandler(items services.IItemService, candidates services.ICandidateService, conflicts services.IConflictService) *ItemHandler {
	return &ItemHandler{
		items:      items,
		candidates: candidates,
		conflicts:  conflicts,
	}
}

type itemRequest struct {
	Name          string        `json:"name" validate:"required,max=200"`
	Description   string        `json:"description" validate:"max=2000"`
	Condition     string        `json:"condition" validate:"max=50"`
	Photo         string        `json:"photo" validate:"max=500"`
	PriceMin      float64       `json:"price_min" validate:"gte=0"`
	PriceMax      float64       `json:"price_max" validate:"gtefield=PriceMin"`
	Latitude      *float64      `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64      `json:"longitude" validate:"omitempty,longitude"`
	SubcategoryID utils.SixID   `json:"subcategory_id" validate:"required"`
	Tags          []utils.SixID `json:"tags" validate:"max=20"`
}

func (r itemRequest) input() (services.ItemInput, error) {
	in := services.ItemInput{
		Name:          r.Name,
		Description:   r.Description,
		Condition:     r.Condition,
		Photo:         r.Photo,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		SubcategoryID: r.SubcategoryID,
		Tags:          r.Tags,
	}
	switch {
	case r.Latitude != nil && r.Longitude != nil:
		in.Location = &geo.Point{Lat: *r.Latitude, Lng: *r.Longitude}
	case r.Latitude != nil:
		return in, apperr.Validation("longitude", "is required with latitude")
	case r.Longitude != nil:
		return in, apperr.Validation("latitude", "is required with longitude")
	}
	return in, nil
}

// Overview handles GET /v1/items: the caller's items, matches for the first one and pending offers.
func (h *ItemHandler) Overview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	overview, err := h.candidates.Overview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// CreateItem handles POST /v1/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}
	item, err := h.items.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem handles GET /v1/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.items.Find(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles PUT /v1/items/:id. Only the owner may edit.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}
	item, err := h.items.Update(c.Request.Context(), userID, itemID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /v1/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ViewItem handles POST /v1/items/:id/view and records a view for the recommender.
func (h *ItemHandler) ViewItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.items.View(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ItemMatches handles GET /v1/items/:id/matches
func (h *ItemHandler) ItemMatches(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	matches, err := h.candidates.ItemMatches(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// Conflicts handles GET /v1/items/conflicts
func (h *ItemHandler) Conflicts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	report, err := h.conflicts.Check(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ResolveConflicts handles POST /v1/items/conflicts/resolve
func (h *ItemHandler) ResolveConflicts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	moved, err := h.conflicts.Resolve(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": moved})
}
