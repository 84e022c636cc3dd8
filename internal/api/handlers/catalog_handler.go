package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// CatalogHandler serves categories, subcategories and tags.
type CatalogHandler struct {
	catalog services.ICatalogService
}

func NewCatalogHandler(catalog services.ICatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type subcategoryRequest struct {
	CategoryID utils.SixID `json:"category_id" validate:"required"`
	Name       string      `json:"name" validate:"required,max=100"`
}

// ListCategories handles GET /v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

// CreateCategory handles POST /v1/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListSubcategories handles GET /v1/subcategories, optionally narrowed by ?category_id=
func (h *CatalogHandler) ListSubcategories(c *gin.Context) {
	var categoryID *utils.SixID
	if raw := c.Query("category_id"); raw != "" {
		id, err := utils.ParseSixID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id", "field": "category_id"})
			return
		}
		categoryID = &id
	}
	subcategories, err := h.catalog.ListSubcategories(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subcategories})
}

// CreateSubcategory handles POST /v1/subcategories
func (h *CatalogHandler) CreateSubcategory(c *gin.Context) {
	var req subcategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	subcategory, err := h.catalog.CreateSubcategory(c.Request.Context(), req.CategoryID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subcategory)
}

// ListTags handles GET /v1/tags
func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tags})
}

// CreateTag handles POST /v1/tags
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.catalog.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}
