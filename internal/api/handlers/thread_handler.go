package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// ThreadHandler serves negotiation threads and their messages.
type ThreadHandler struct {
	threads services.IThreadService
}

func NewThreadHandler(threads services.IThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

type threadRequest struct {
	TransactionID utils.SixID `json:"transaction_id" validate:"required"`
}

type messageRequest struct {
	Text string `json:"text" validate:"required"`
}

// List handles GET /v1/threads
func (h *ThreadHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threads, err := h.threads.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": threads})
}

// GetOrCreate handles POST /v1/threads
func (h *ThreadHandler) GetOrCreate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req threadRequest
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.threads.GetOrCreate(c.Request.Context(), userID, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// Detail handles GET /v1/threads/:id
func (h *ThreadHandler) Detail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threadID, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.threads.Detail(c.Request.Context(), userID, threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SendMessage handles POST /v1/threads/:id/messages. Length limits are enforced by the service.
func (h *ThreadHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threadID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.threads.SendMessage(c.Request.Context(), userID, threadID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
