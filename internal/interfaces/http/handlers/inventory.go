// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/inventory"
)

// InventoryHandler handles physical item registry requests
type InventoryHandler struct {
	items *inventory.Service
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(items *inventory.Service) *InventoryHandler {
	return &InventoryHandler{items: items}
}

// CreateItem handles POST /api/inventory/item (admin). The response carries
// the rendered QR image so the client can print a label immediately.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req inventory.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, inventory.ErrDuplicateCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, inventory.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create inventory item"})
		}
		return
	}

	_, dataURL, err := h.items.QRCodeFor(c.Request.Context(), item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"item":          item,
		"qrCodeDataURL": dataURL,
	})
}

// CreateBatch handles POST /api/inventory/batch (admin)
func (h *InventoryHandler) CreateBatch(c *gin.Context) {
	var req inventory.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.items.CreateBatch(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, inventory.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create batch"})
		}
		return
	}

	resp := gin.H{
		"created": len(result.Created),
		"items":   result.Created,
	}
	if len(result.Failed) > 0 {
		resp["errors"] = result.Failed
	}
	c.JSON(http.StatusCreated, resp)
}

// Scan handles GET /api/inventory/scan/:itemCode — the public endpoint QR
// labels point at. Authentication is optional; a logged-in scan records
// who scanned.
func (h *InventoryHandler) Scan(c *gin.Context) {
	code := c.Param("itemCode")

	scannedBy := ""
	if actor := actorFrom(c); actor.Email != "" {
		scannedBy = actor.Email
	}

	view, err := h.items.Scan(c.Request.Context(), code, scannedBy, "")
	if err != nil {
		if errors.Is(err, inventory.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record scan"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetByCode handles GET /api/inventory/item/:itemCode (admin)
func (h *InventoryHandler) GetByCode(c *gin.Context) {
	view, err := h.items.GetByCode(c.Request.Context(), c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, inventory.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load item"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetStatus handles PUT /api/inventory/item/:itemCode/status (admin)
func (h *InventoryHandler) SetStatus(c *gin.Context) {
	var req inventory.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.items.SetStatus(c.Request.Context(), c.Param("itemCode"), &req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		case errors.Is(err, inventory.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item status"})
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

// ListForProduct handles GET /api/inventory/product/:productId (admin)
func (h *InventoryHandler) ListForProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	items, err := h.items.ListForProduct(c.Request.Context(), productID, inventory.Status(c.Query("status")))
	if err != nil {
		if errors.Is(err, inventory.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Stats handles GET /api/inventory/stats/:productId (admin)
func (h *InventoryHandler) Stats(c *gin.Context) {
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	stats, err := h.items.StatsForProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// QRCode handles GET /api/inventory/item/:itemCode/qr (admin): re-renders
// the label image for reprinting.
func (h *InventoryHandler) QRCode(c *gin.Context) {
	view, err := h.items.GetByCode(c.Request.Context(), c.Param("itemCode"))
	if err != nil {
		if errors.Is(err, inventory.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load item"})
		return
	}

	item, dataURL, err := h.items.QRCodeFor(c.Request.Context(), view.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":          item,
		"qrCodeDataURL": dataURL,
	})
}

// Delete handles DELETE /api/inventory/item/:itemCode (admin)
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.items.DeleteItem(c.Request.Context(), c.Param("itemCode"), actorFrom(c)); err != nil {
		if errors.Is(err, inventory.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}
