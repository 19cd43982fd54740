package handler

import (
	"errors"
	"net/http"

	"ibimina-reconciliation-backend/internal/middleware"
	"ibimina-reconciliation-backend/internal/services/importer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ImportHandler struct {
	service *importer.Service
}

func NewImportHandler(s *importer.Service) *ImportHandler {
	return &ImportHandler{service: s}
}

func (h *ImportHandler) Import(c *gin.Context) {
	var payload struct {
		SaccoID   *string        `json:"saccoId"`
		IkiminaID *string        `json:"ikiminaId"`
		Rows      []importer.Row `json:"rows"`
		DryRun    bool           `json:"dryRun"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	req := importer.Request{Rows: payload.Rows, DryRun: payload.DryRun}

	var err error
	if req.SaccoID, err = parseOptionalUUID(payload.SaccoID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid saccoId"})
		return
	}
	if req.IkiminaID, err = parseOptionalUUID(payload.IkiminaID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ikiminaId"})
		return
	}

	summary, err := h.service.Import(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		var validation *importer.ValidationError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": validation.Details,
			})
		case errors.Is(err, importer.ErrTooManyRows):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, importer.ErrForbidden), errors.Is(err, importer.ErrNoScope):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		case errors.Is(err, importer.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ikimina not found"})
		case errors.Is(err, importer.ErrGroupScope):
			c.JSON(http.StatusBadRequest, gin.H{"error": "ikimina belongs to another sacco"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
