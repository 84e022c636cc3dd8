package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/geo"
	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// ProfileHandler serves the caller's own profile, location, device and preferences.
type ProfileHandler struct {
	profiles    services.IProfileService
	preferences services.IPreferenceService
	items       services.IItemService
}

func NewProfileHandler(profiles services.IProfileService, preferences services.IPreferenceService, items services.IItemService) *ProfileHandler {
	return &ProfileHandler{
		profiles:    profiles,
		preferences: preferences,
		items:       items,
	}
}

type profileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Label     string   `json:"label" validate:"max=200"`
}

type deviceRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android"`
}

type preferencesRequest struct {
	Categories    []utils.SixID `json:"categories" validate:"max=50"`
	Tags          []utils.SixID `json:"tags" validate:"max=50"`
	DistanceRange *float64      `json:"distance_range"`
}

// GetProfile handles GET /v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.profiles.FindByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.items.ListByOwner(ctx, userID, false)
	if err != nil {
		respondError(c, err)
		return
	}
	prefs, err := h.preferences.GetPreferences(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"items":       items,
		"preferences": prefs,
	})
}

// UpdateProfile handles PUT /v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.profiles.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangeLocation handles POST /v1/profile/location
func (h *ProfileHandler) ChangeLocation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	p := geo.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	user, err := h.profiles.ChangeLocation(c.Request.Context(), userID, p, req.Label)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// StoreDevice handles POST /v1/profile/device. The token moves to the caller if another user held it.
func (h *ProfileHandler) StoreDevice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req deviceRequest
	if !bindJSON(c, &req) {
		return
	}
	device, err := h.profiles.StoreDevice(c.Request.Context(), userID, req.Token, req.Platform)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// GetPreferences handles GET /v1/profile/preferences
func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	prefs, err := h.preferences.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ReplacePreferences handles PUT /v1/profile/preferences
func (h *ProfileHandler) ReplacePreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req preferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	prefs, err := h.preferences.ReplacePreferences(c.Request.Context(), userID, services.PreferenceUpdate{
		CategoryIDs:     req.Categories,
		TagIDs:          req.Tags,
		DistanceRangeKm: req.DistanceRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
