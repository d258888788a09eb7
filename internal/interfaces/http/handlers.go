package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/liquidagov/internal/application/batch"
	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/pkg/currency"
	"github.com/garyjia/liquidagov/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps           Dependencies
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		deps:           deps,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// BatchResponse is the batch view: ledger contents plus dispatch state
type BatchResponse struct {
	Entries        []entity.LedgerEntry   `json:"entries"`
	Size           int                    `json:"size"`
	Total          string                 `json:"total"`
	DefaultAddress string                 `json:"defaultAddress"`
	Pending        *batch.PendingDispatch `json:"pending,omitempty"`
}

// AttestationRequest sets the SICAF attestation flag
type AttestationRequest struct {
	Attested *bool `json:"attested" binding:"required"`
}

// DispatchRequest carries the destination address. A missing address falls
// back to the configured default; an explicit empty one cancels the dispatch.
type DispatchRequest struct {
	Address *string `json:"address"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// GetSession handles GET /api/session
func (h *Handlers) GetSession(c *gin.Context) {
	h.respondSession(c)
}

// AttachDocument handles PUT /api/session/documents/:kind
func (h *Handlers) AttachDocument(c *gin.Context) {
	attach, ok := h.attacher(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "multipart field \"file\" is required"})
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}
	if err := utils.ValidateDocumentType(mimeType); err != nil {
		c.JSON(http.StatusUnsupportedMediaType, Response{Success: false, Error: err.Error()})
		return
	}

	doc := &entity.Document{
		Name:     utils.SanitizeString(filepath.Base(fh.Filename)),
		MimeType: mimeType,
		Content:  content,
	}
	if err := attach(doc); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c)
}

// RemoveDocument handles DELETE /api/session/documents/:kind
func (h *Handlers) RemoveDocument(c *gin.Context) {
	attach, ok := h.attacher(c)
	if !ok {
		return
	}
	if err := attach(nil); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c)
}

func (h *Handlers) attacher(c *gin.Context) (func(*entity.Document) error, bool) {
	switch kind := c.Param("kind"); kind {
	case entity.DocumentInvoice:
		return h.deps.Engine.AttachInvoice, true
	case entity.DocumentCommitment:
		return h.deps.Engine.AttachCommitment, true
	default:
		c.JSON(http.StatusNotFound, Response{Success: false, Error: fmt.Sprintf("unknown document kind %q", kind)})
		return nil, false
	}
}

// UpdateRecord handles PATCH /api/session/record
func (h *Handlers) UpdateRecord(c *gin.Context) {
	var patch entity.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := h.deps.Engine.UpdateRecord(patch); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c)
}

// SetAttestation handles PUT /api/session/attestation
func (h *Handlers) SetAttestation(c *gin.Context) {
	var req AttestationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := h.deps.Engine.SetAttested(*req.Attested); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c)
}

// Advance handles POST /api/session/advance
func (h *Handlers) Advance(c *gin.Context) {
	h.runTransition(c, h.deps.Engine.Advance(c.Request.Context()))
}

// GoBack handles POST /api/session/back
func (h *Handlers) GoBack(c *gin.Context) {
	h.runTransition(c, h.deps.Engine.GoBack(c.Request.Context()))
}

// Reset handles POST /api/session/reset
func (h *Handlers) Reset(c *gin.Context) {
	h.runTransition(c, h.deps.Engine.Reset(c.Request.Context()))
}

// StartNew handles POST /api/session/new
func (h *Handlers) StartNew(c *gin.Context) {
	h.runTransition(c, h.deps.Engine.StartNew(c.Request.Context()))
}

// ViewBatch handles POST /api/session/batch
func (h *Handlers) ViewBatch(c *gin.Context) {
	h.runTransition(c, h.deps.Engine.ViewBatch(c.Request.Context()))
}

func (h *Handlers) runTransition(c *gin.Context, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSession(c)
}

func (h *Handlers) respondSession(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.deps.Engine.Snapshot()})
}

// GetBatch handles GET /api/batch
func (h *Handlers) GetBatch(c *gin.Context) {
	entries := h.deps.Ledger.Entries()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: BatchResponse{
			Entries:        entries,
			Size:           len(entries),
			Total:          currency.FormatBRL(h.deps.Ledger.Total()),
			DefaultAddress: h.deps.Dispatcher.DefaultAddress(),
			Pending:        h.deps.Dispatcher.Pending(),
		},
	})
}

// ExportBatch handles GET /api/batch/export
func (h *Handlers) ExportBatch(c *gin.Context) {
	entries := h.deps.Ledger.Entries()
	if len(entries) == 0 {
		h.respondError(c, &entity.EmptyBatchError{})
		return
	}

	data, err := h.deps.Exporter.Export(entries)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("remessa-%s.xlsx", time.Now().Format(entity.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Dispatch handles POST /api/batch/dispatch
func (h *Handlers) Dispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	address := h.deps.Dispatcher.DefaultAddress()
	if req.Address != nil {
		address = *req.Address
	}

	pending, err := h.deps.Dispatcher.Dispatch(c.Request.Context(), address)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: pending})
}

// Confirm handles POST /api/batch/confirm
func (h *Handlers) Confirm(c *gin.Context) {
	remessa, err := h.deps.Dispatcher.Confirm(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: remessa})
}

// Abandon handles POST /api/batch/abandon
func (h *Handlers) Abandon(c *gin.Context) {
	abandoned := h.deps.Dispatcher.Abandon()
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"abandoned": abandoned}})
}

// History handles GET /api/batch/history
func (h *Handlers) History(c *gin.Context) {
	if h.deps.Journal == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "remessa journal is disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	remessas, err := h.deps.Journal.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if remessas == nil {
		remessas = []*entity.Remessa{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: remessas})
}
