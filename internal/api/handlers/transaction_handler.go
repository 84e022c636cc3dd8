package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// TransactionHandler serves swap proposals and their history.
type TransactionHandler struct {
	negotiation services.INegotiationService
}

func NewTransactionHandler(negotiation services.INegotiationService) *TransactionHandler {
	return &TransactionHandler{negotiation: negotiation}
}

type proposeRequest struct {
	UserItemID  utils.SixID `json:"user_item_id" validate:"required"`
	OtherItemID utils.SixID `json:"other_item_id" validate:"required"`
}

// Propose handles POST /v1/transactions. An open offer on the same pair, in either
// direction, comes back as 409 transaction_exists with the existing transaction.
func (h *TransactionHandler) Propose(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req proposeRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.negotiation.Propose(c.Request.Context(), userID, req.UserItemID, req.OtherItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// Pending handles GET /v1/transactions/pending
func (h *TransactionHandler) Pending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pending, err := h.negotiation.Pending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pending, "count": len(pending)})
}

// History handles GET /v1/transactions/history
func (h *TransactionHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	history, err := h.negotiation.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// SwapHistory handles GET /v1/transactions/swaps
func (h *TransactionHandler) SwapHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swaps, err := h.negotiation.SwapHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": swaps})
}
