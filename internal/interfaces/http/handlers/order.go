// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/order"
)

// OrderHandler handles order ledger and fulfillment requests
type OrderHandler struct {
	orders *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placed, err := h.orders.CreateOrder(c.Request.Context(), currentUserID(c), &req, actorFrom(c))
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, placed)
}

// List handles GET /api/orders. Customers see their own orders; admins see
// all orders, newest-first.
func (h *OrderHandler) List(c *gin.Context) {
	var (
		orders []order.Order
		err    error
	)
	if isAdmin(c) {
		orders, err = h.orders.ListAll(c.Request.Context())
	} else {
		orders, err = h.orders.ListForCustomer(c.Request.Context(), currentUserID(c))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	placed, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}

	// Customers can only see their own orders
	if !isAdmin(c) && placed.CustomerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, placed)
}

// SetStatus handles PUT /api/orders/:id/status (admin)
func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placed, err := h.orders.SetStatus(c.Request.Context(), id, req.Status, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, order.ErrStatusReserved):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Use the complete endpoint to fulfill an order"})
		case errors.Is(err, order.ErrAlreadyFulfilled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order has already been fulfilled"})
		case errors.Is(err, order.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, placed)
}

// Complete handles PUT /api/orders/:id/complete (admin): runs the
// fulfillment engine and returns the order together with its invoice.
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	result, err := h.orders.Fulfill(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		var gone *order.ProductGoneError
		var short *order.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, order.ErrAlreadyFulfilled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order has already been fulfilled"})
		case errors.As(err, &gone):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   gone.Error(),
				"product": gone.ProductID,
			})
		case errors.As(err, &short):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     short.Error(),
				"product":   short.ProductID,
				"requested": short.Requested,
				"available": short.Available,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fulfill order"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/orders/:id (admin)
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), id, actorFrom(c)); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
