// server/internal/api/handlers/scan_handler.go
package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"reagent-inventory-api-server/internal/api/middleware"
	"reagent-inventory-api-server/internal/decoder"
	"reagent-inventory-api-server/internal/reconciler"
)

// ScanSessionHeader identifies the scanning station. Cooldown windows are kept
// per session.
const ScanSessionHeader = "X-Scan-Session"

// ImageArchiver stores a submitted scan image and returns where it went.
type ImageArchiver interface {
	ArchiveScanImage(ctx context.Context, barcode string, image io.Reader, contentType string, at time.Time) (string, error)
}

type ScanHandler struct {
	Reconciler    *reconciler.Reconciler
	Decoder       *decoder.Decoder
	Archiver      ImageArchiver // nil disables archiving
	Hub           Notifier
	MaxImageBytes int64
	Log           zerolog.Logger
}

type ScanRequestPayload struct {
	Barcode   string `json:"barcode" binding:"required"`
	Direction string `json:"direction"`
	Amount    int    `json:"amount" binding:"min=0"`
}

// ImageScanResponse adds what the decoder saw to the scan outcome.
type ImageScanResponse struct {
	reconciler.Outcome
	Format   string `json:"format"`
	ImageURL string `json:"imageURL,omitempty"`
}

// Scan applies one decoded barcode.
func (h *ScanHandler) Scan(c *gin.Context) {
	var req ScanRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	direction, err := reconciler.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.Reconciler.Scan(c.Request.Context(), h.scanRequest(c, req.Barcode, direction, req.Amount))
	// a failed log append still leaves the quantity changed
	if out.Changed() {
		notifyChanged(h.Hub, out.Item)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ScanImage decodes a still image, archives it and applies the barcode found.
// An image without a readable code changes nothing.
func (h *ScanHandler) ScanImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxImageBytes)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	direction, err := reconciler.ParseDirection(c.PostForm("direction"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount := 0
	if raw := c.PostForm("amount"); raw != "" {
		amount, err = strconv.Atoi(raw)
		if err != nil || amount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative integer"})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}

	result, err := h.Decoder.DecodeReader(bytes.NewReader(data))
	if err != nil {
		h.Log.Info().Err(err).Str("file", fileHeader.Filename).Msg("no barcode in submitted image")
		respondError(c, err)
		return
	}

	out, err := h.Reconciler.Scan(c.Request.Context(), h.scanRequest(c, result.Text, direction, amount))
	// a failed log append still leaves the quantity changed
	if out.Changed() {
		notifyChanged(h.Hub, out.Item)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ImageScanResponse{Outcome: out, Format: result.Format}
	if h.Archiver != nil {
		contentType := http.DetectContentType(data)
		url, err := h.Archiver.ArchiveScanImage(c.Request.Context(), out.Barcode, bytes.NewReader(data), contentType, time.Now())
		if err != nil {
			// the scan already applied; a lost archive copy is not worth failing it
			h.Log.Error().Err(err).Str("barcode", out.Barcode).Msg("failed to archive scan image")
		} else {
			resp.ImageURL = url
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ScanHandler) scanRequest(c *gin.Context, barcode string, direction reconciler.Direction, amount int) reconciler.ScanRequest {
	operator := c.GetString(middleware.ContextUserEmail)
	session := c.GetHeader(ScanSessionHeader)
	if session == "" {
		session = operator
	}
	return reconciler.ScanRequest{
		SessionID: session,
		Barcode:   barcode,
		Direction: direction,
		Amount:    amount,
		Operator:  operator,
	}
}
