package handler

import (
	"net/http"
	"time"

	"ibimina-reconciliation-backend/internal/middleware"
	"ibimina-reconciliation-backend/internal/services/ingestion"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IngestHandler struct {
	service *ingestion.Service
}

func NewIngestHandler(s *ingestion.Service) *IngestHandler {
	return &IngestHandler{service: s}
}

// Inbox receives one forwarded SMS from the gateway. Authentication happens
// in the webhook middleware before this runs.
func (h *IngestHandler) Inbox(c *gin.Context) {
	var payload struct {
		Text       string                 `json:"text"`
		ReceivedAt string                 `json:"receivedAt"`
		SaccoID    *string                `json:"saccoId"`
		SourceHint string                 `json:"sourceHint"`
		VendorMeta map[string]interface{} `json:"vendorMeta"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	req := ingestion.Request{
		Text:       payload.Text,
		SourceHint: payload.SourceHint,
		VendorMeta: payload.VendorMeta,
	}

	if payload.ReceivedAt != "" {
		receivedAt, err := time.Parse(time.RFC3339, payload.ReceivedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receivedAt, expected RFC3339"})
			return
		}
		req.ReceivedAt = receivedAt.UTC()
	}

	if payload.SaccoID != nil && *payload.SaccoID != "" {
		saccoID, err := uuid.Parse(*payload.SaccoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid saccoId"})
			return
		}
		req.SaccoID = &saccoID
	}

	result, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status reports ingestion pipeline health for the monitoring dashboard.
func (h *IngestHandler) Status(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var requested *uuid.UUID
	if raw := c.Query("saccoId"); raw != "" {
		saccoID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid saccoId"})
			return
		}
		requested = &saccoID
	}

	report, err := h.service.Status(c.Request.Context(), actor.ResolveScope(requested))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status query failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}
