package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

type fakeAuditHistory struct {
	id    int64
	limit int
	logs  []models.AuditLog
}

func (f *fakeAuditHistory) ListByProposal(_ context.Context, proposalID int64, limit int) ([]models.AuditLog, error) {
	f.id = proposalID
	f.limit = limit
	return f.logs, nil
}

func TestAuditHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &fakeAuditHistory{logs: []models.AuditLog{{ID: "a1", Action: models.AuditActionProposalApprove, ProposalID: 3}}}
	r := gin.New()
	r.GET("/proposals/:id/audit", NewAuditHandler(history).List)

	rec, envelope := serve(r, http.MethodGet, "/proposals/3/audit?limit=500", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), history.id)
	assert.Equal(t, maxAuditLimit, history.limit)
	assert.Contains(t, string(envelope.Data), "PROPOSAL_APPROVE")

	rec, _ = serve(r, http.MethodGet, "/proposals/3/audit?limit=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
