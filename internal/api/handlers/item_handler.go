// server/internal/api/handlers/item_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reagent-inventory-api-server/internal/api/middleware"
	"reagent-inventory-api-server/internal/models"
	"reagent-inventory-api-server/internal/reconciler"
	"reagent-inventory-api-server/internal/store"
)

type ItemHandler struct {
	Items      store.ItemStore
	Reconciler *reconciler.Reconciler
	Hub        Notifier
}

// RegisterItemRequest is the data-entry form shown after an unknown barcode.
type RegisterItemRequest struct {
	Barcode      string `json:"barcode" binding:"required"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity" binding:"min=0"`
	Expiration   string `json:"expiration"`
	LotNumber    string `json:"lotNumber"`
	DeliveryDate string `json:"deliveryDate"`
}

type StockOutRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// RegisterItem creates the item for a new barcode.
func (h *ItemHandler) RegisterItem(c *gin.Context) {
	var req RegisterItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.Reconciler.Register(c.Request.Context(), reconciler.RegisterRequest{
		Barcode:      req.Barcode,
		Name:         req.Name,
		Quantity:     req.Quantity,
		Expiration:   req.Expiration,
		LotNumber:    req.LotNumber,
		DeliveryDate: req.DeliveryDate,
		Operator:     c.GetString(middleware.ContextUserEmail),
	})
	if errors.Is(err, models.ErrAlreadyRegistered) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "item": item})
		return
	}
	if err != nil {
		if item != nil {
			// created, but the usage log entry was lost
			notifyChanged(h.Hub, item)
		}
		respondError(c, err)
		return
	}

	notifyChanged(h.Hub, item)
	c.JSON(http.StatusCreated, item)
}

// GetAllItems lists the inventory table.
func (h *ItemHandler) GetAllItems(c *gin.Context) {
	filter := store.ItemFilter{NameContains: c.Query("q")}
	if raw := c.Query("expiringBefore"); raw != "" {
		date, err := models.NormalizeDate(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.ExpiringBefore = date
	}

	items, err := h.Items.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItemByBarcode returns one item.
func (h *ItemHandler) GetItemByBarcode(c *gin.Context) {
	barcode, err := models.NormalizeBarcode(c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.Items.FindByBarcode(c.Request.Context(), barcode)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// StockOut removes units without going through the scan feed.
func (h *ItemHandler) StockOut(c *gin.Context) {
	var req StockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.Reconciler.StockOut(c.Request.Context(), c.Param("barcode"), req.Amount, c.GetString(middleware.ContextUserEmail))
	if item != nil {
		notifyChanged(h.Hub, item)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
