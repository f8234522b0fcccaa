// internal/interfaces/http/handlers/quote.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/quote"
)

// QuoteHandler handles quote request intake and triage
type QuoteHandler struct {
	quotes *quote.Service
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quotes *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Create handles POST /api/quotes — the public intake form
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quote.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inquiry, err := h.quotes.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, quote.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit quote request"})
		return
	}

	c.JSON(http.StatusCreated, inquiry)
}

// List handles GET /api/quotes (admin)
func (h *QuoteHandler) List(c *gin.Context) {
	inquiries, err := h.quotes.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		if errors.Is(err, quote.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list quote requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": inquiries, "count": len(inquiries)})
}

// Update handles PUT /api/quotes/:id (admin)
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote request ID"})
		return
	}

	var req quote.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inquiry, err := h.quotes.Update(c.Request.Context(), id, &req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote request not found"})
		case errors.Is(err, quote.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote request"})
		}
		return
	}

	c.JSON(http.StatusOK, inquiry)
}

// Delete handles DELETE /api/quotes/:id (admin)
func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote request ID"})
		return
	}

	if err := h.quotes.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		if errors.Is(err, quote.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quote request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quote request deleted"})
}
