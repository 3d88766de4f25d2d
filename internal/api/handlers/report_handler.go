package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reagent-inventory-api-server/internal/report"
	"reagent-inventory-api-server/internal/store"
)

type ReportHandler struct {
	Items  store.ItemStore
	Report *report.InventoryReport
}

// InventoryPDF streams the printable inventory sheet.
func (h *ReportHandler) InventoryPDF(c *gin.Context) {
	items, err := h.Items.List(c.Request.Context(), store.ItemFilter{})
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	pdf, err := h.Report.Generate(items, now)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="inventory-`+now.Format("20060102")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
