// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/breakroom-backend/internal/domain/invoice"
)

const invoiceUploadDir = "uploads/invoices"

// InvoiceHandler handles invoice requests
type InvoiceHandler struct {
	invoices *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Upload handles POST /api/invoices/upload (admin): multipart form with a
// PDF file plus customer/order references.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice file is required"})
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF invoices are accepted"})
		return
	}

	customerID, err := strconv.ParseUint(c.PostForm("customerId"), 10, 32)
	if err != nil || customerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid customerId is required"})
		return
	}

	req := invoice.UploadRequest{
		CustomerID: uint(customerID),
		FileName:   file.Filename,
	}
	if raw := c.PostForm("orderId"); raw != "" {
		orderID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid orderId"})
			return
		}
		id := uint(orderID)
		req.OrderID = &id
	}
	if raw := c.PostForm("totalAmount"); raw != "" {
		total, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || total < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid totalAmount"})
			return
		}
		req.TotalAmount = total
	}

	// Prefix with a UUID so concurrent uploads of the same filename never
	// clobber each other
	req.FilePath = filepath.Join(invoiceUploadDir, fmt.Sprintf("%s-%s", uuid.New().String(), filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, req.FilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store invoice file"})
		return
	}

	inv, err := h.invoices.Upload(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		if errors.Is(err, invoice.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record invoice"})
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// List handles GET /api/invoices. Customers see their own invoices; admins
// see all of them.
func (h *InvoiceHandler) List(c *gin.Context) {
	var (
		invoices []invoice.Invoice
		err      error
	)
	if isAdmin(c) {
		invoices, err = h.invoices.ListAll(c.Request.Context())
	} else {
		invoices, err = h.invoices.ListForCustomer(c.Request.Context(), currentUserID(c))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

// Get handles GET /api/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	inv, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoice"})
		return
	}

	if !isAdmin(c) && inv.CustomerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Send handles POST /api/invoices/:id/send (admin)
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	inv, err := h.invoices.Send(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, invoice.ErrInvoiceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, invoice.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send invoice"})
		}
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Delete handles DELETE /api/invoices/:id (admin)
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	if err := h.invoices.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invoice"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}
