package handler

import (
	"errors"
	"net/http"

	"ibimina-reconciliation-backend/internal/middleware"
	"ibimina-reconciliation-backend/internal/services/assignment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AssignHandler struct {
	service *assignment.Service
}

func NewAssignHandler(s *assignment.Service) *AssignHandler {
	return &AssignHandler{service: s}
}

func (h *AssignHandler) Assign(c *gin.Context) {
	var payload struct {
		IDs       []string `json:"ids"`
		IkiminaID string   `json:"ikiminaId"`
		MemberID  *string  `json:"memberId"`
		SaccoID   *string  `json:"saccoId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	req := assignment.Request{}

	for _, raw := range payload.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id: " + raw})
			return
		}
		req.IDs = append(req.IDs, id)
	}

	if payload.IkiminaID != "" {
		ikiminaID, err := uuid.Parse(payload.IkiminaID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ikiminaId"})
			return
		}
		req.IkiminaID = ikiminaID
	}

	var err error
	if req.MemberID, err = parseOptionalUUID(payload.MemberID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memberId"})
		return
	}
	if req.SaccoID, err = parseOptionalUUID(payload.SaccoID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid saccoId"})
		return
	}

	result, err := h.service.Assign(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrNoIDs), errors.Is(err, assignment.ErrGroupRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, assignment.ErrForbidden), errors.Is(err, assignment.ErrNoScope):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		case errors.Is(err, assignment.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ikimina not found"})
		case errors.Is(err, assignment.ErrGroupScope):
			c.JSON(http.StatusBadRequest, gin.H{"error": "ikimina belongs to another sacco"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assignment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
