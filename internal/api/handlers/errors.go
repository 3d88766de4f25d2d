package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reagent-inventory-api-server/internal/models"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyBarcode),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidDirection),
		errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoBarcodeDetected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Internal failures are recorded on the
// context for the request logger and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Notifier receives inventory change events for connected clients.
type Notifier interface {
	Broadcast(v any)
}

// InventoryChanged is the broadcast sent after every mutation.
type InventoryChanged struct {
	Type string                `json:"type"`
	Item *models.InventoryItem `json:"item"`
}

func notifyChanged(n Notifier, item *models.InventoryItem) {
	if n == nil || item == nil {
		return
	}
	n.Broadcast(InventoryChanged{Type: MessageInventoryChanged, Item: item})
}
