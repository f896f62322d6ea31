package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const idempotencyHeader = "Idempotency-Key"

type proposalService interface {
	Submit(ctx context.Context, req dto.SubmitProposalRequest, actor string) (*models.Proposal, error)
	Edit(ctx context.Context, id int64, req dto.EditProposalRequest, actor string) (*models.Proposal, error)
	Approve(ctx context.Context, id int64, actor string) (*models.Proposal, error)
	Decline(ctx context.Context, id int64, reason, actor string) (*models.Proposal, error)
	Get(ctx context.Context, id int64) (*models.Proposal, error)
	List(ctx context.Context, query dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error)
	Summary(ctx context.Context) (*models.ProposalSummary, bool, error)
	Calendar(ctx context.Context, query dto.CalendarQuery) ([]models.CalendarDay, error)
}

// ProposalHandler exposes the event proposal workflow over REST.
type ProposalHandler struct {
	service proposalService
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(service proposalService) *ProposalHandler {
	return &ProposalHandler{service: service}
}

// Submit godoc
// @Summary Submit an event proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays return the original proposal"
// @Param X-Actor header string false "Caller identity for the audit trail"
// @Param payload body dto.SubmitProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError("invalid proposal payload", err))
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(idempotencyHeader))
	proposal, err := h.service.Submit(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// List godoc
// @Summary List proposals, newest event date first
// @Tags Proposals
// @Produce json
// @Param status query string false "Pending, Approved, Declined or all"
// @Param q query string false "Case-insensitive search over title, organizer, location, description and submitter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	var query dto.ProposalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError("invalid query parameters", err))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Summary godoc
// @Summary Reviewer dashboard counts and upcoming events
// @Tags Proposals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proposals/summary [get]
func (h *ProposalHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.MetaSince(c, start))
}

// Calendar godoc
// @Summary Active proposals grouped by date
// @Tags Proposals
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /proposals/calendar [get]
func (h *ProposalHandler) Calendar(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError("invalid calendar range", err))
		return
	}
	days, err := h.service.Calendar(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// Get godoc
// @Summary Get a proposal
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, err := parseProposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Edit godoc
// @Summary Edit or resubmit a proposal
// @Description Replaces the editable fields, appends new attachments and returns the proposal to Pending.
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body dto.EditProposalRequest true "Edited fields"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id} [patch]
func (h *ProposalHandler) Edit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, err := parseProposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError("invalid proposal payload", err))
		return
	}
	proposal, err := h.service.Edit(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Approve godoc
// @Summary Approve a proposal
// @Tags Proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/approve [post]
func (h *ProposalHandler) Approve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, err := parseProposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.service.Approve(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Decline godoc
// @Summary Decline a proposal
// @Description An empty body or blank reason records the default reason.
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path int true "Proposal ID"
// @Param payload body dto.DeclineProposalRequest false "Decline reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id}/decline [post]
func (h *ProposalHandler) Decline(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, err := parseProposalID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DeclineProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError("invalid decline payload", err))
		return
	}
	proposal, err := h.service.Decline(c.Request.Context(), id, req.Reason, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}
