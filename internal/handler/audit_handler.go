package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const maxAuditLimit = 200

type auditHistory interface {
	ListByProposal(ctx context.Context, proposalID int64, limit int) ([]models.AuditLog, error)
}

// AuditHandler serves the persisted lifecycle trail of a proposal.
type AuditHandler struct {
	history auditHistory
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(history auditHistory) *AuditHandler {
	return &AuditHandler{history: history}
}

// List godoc
// @Summary Lifecycle audit trail for a proposal
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Param limit query int false "Maximum records, newest first"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	if h.history == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "audit store not configured"))
		return
	}
	id, err := parseProposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		if limit > maxAuditLimit {
			limit = maxAuditLimit
		}
	}
	logs, err := h.history.ListByProposal(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
