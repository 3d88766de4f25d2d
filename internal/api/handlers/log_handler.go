// server/internal/api/handlers/log_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reagent-inventory-api-server/internal/models"
	"reagent-inventory-api-server/internal/store"
)

type LogHandler struct {
	Logs store.LogStore
}

// GetUsageLogs lists usage log entries, newest first.
func (h *LogHandler) GetUsageLogs(c *gin.Context) {
	filter := store.LogFilter{Barcode: c.Query("barcode")}

	if action := c.Query("action"); action != "" {
		filter.Action = models.Action(action)
		if !filter.Action.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action " + action})
			return
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Logs.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
