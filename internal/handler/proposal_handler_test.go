package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type apiEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type fakeProposalSrv struct {
	submitReq  dto.SubmitProposalRequest
	editReq    dto.EditProposalRequest
	lastID     int64
	lastActor  string
	lastReason string
	lastQuery  dto.ProposalQuery
	lastRange  dto.CalendarQuery
	proposal   *models.Proposal
	items      []models.Proposal
	pagination *models.Pagination
	summary    *models.ProposalSummary
	summaryHit bool
	days       []models.CalendarDay
	err        error
}

func (f *fakeProposalSrv) Submit(_ context.Context, req dto.SubmitProposalRequest, actor string) (*models.Proposal, error) {
	f.submitReq = req
	f.lastActor = actor
	return f.proposal, f.err
}

func (f *fakeProposalSrv) Edit(_ context.Context, id int64, req dto.EditProposalRequest, actor string) (*models.Proposal, error) {
	f.lastID = id
	f.editReq = req
	f.lastActor = actor
	return f.proposal, f.err
}

func (f *fakeProposalSrv) Approve(_ context.Context, id int64, actor string) (*models.Proposal, error) {
	f.lastID = id
	f.lastActor = actor
	return f.proposal, f.err
}

func (f *fakeProposalSrv) Decline(_ context.Context, id int64, reason, actor string) (*models.Proposal, error) {
	f.lastID = id
	f.lastReason = reason
	f.lastActor = actor
	return f.proposal, f.err
}

func (f *fakeProposalSrv) Get(_ context.Context, id int64) (*models.Proposal, error) {
	f.lastID = id
	return f.proposal, f.err
}

func (f *fakeProposalSrv) List(_ context.Context, query dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error) {
	f.lastQuery = query
	return f.items, f.pagination, f.err
}

func (f *fakeProposalSrv) Summary(context.Context) (*models.ProposalSummary, bool, error) {
	return f.summary, f.summaryHit, f.err
}

func (f *fakeProposalSrv) Calendar(_ context.Context, query dto.CalendarQuery) ([]models.CalendarDay, error) {
	f.lastRange = query
	return f.days, f.err
}

func newProposalRouter(srv proposalService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProposalHandler(srv)
	r := gin.New()
	r.Use(middleware.Actor(), middleware.WithResponseMeta())
	r.POST("/proposals", h.Submit)
	r.GET("/proposals", h.List)
	r.GET("/proposals/summary", h.Summary)
	r.GET("/proposals/calendar", h.Calendar)
	r.GET("/proposals/:id", h.Get)
	r.PATCH("/proposals/:id", h.Edit)
	r.POST("/proposals/:id/approve", h.Approve)
	r.POST("/proposals/:id/decline", h.Decline)
	return r
}

func serve(r http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var envelope apiEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec, envelope
}

func TestProposalHandlerSubmitPassesHeaders(t *testing.T) {
	srv := &fakeProposalSrv{proposal: &models.Proposal{ID: 6, Title: "Robotics Expo", Status: models.ProposalStatusPending}}
	r := newProposalRouter(srv)

	rec, envelope := serve(r, http.MethodPost, "/proposals",
		`{"title":"Robotics Expo","date":"2026-03-14","time":"10:00 AM","attachments":[{"name":"plan.pdf","mimeType":"application/pdf"}]}`,
		map[string]string{"Idempotency-Key": " abc-123 ", "X-Actor": "club@campus.edu"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "abc-123", srv.submitReq.IdempotencyKey)
	assert.Equal(t, "club@campus.edu", srv.lastActor)
	assert.Equal(t, "Robotics Expo", srv.submitReq.Title)
	require.Len(t, srv.submitReq.Attachments, 1)

	var created models.Proposal
	require.NoError(t, json.Unmarshal(envelope.Data, &created))
	assert.Equal(t, int64(6), created.ID)
}

func TestProposalHandlerSubmitMalformedJSON(t *testing.T) {
	r := newProposalRouter(&fakeProposalSrv{})

	rec, envelope := serve(r, http.MethodPost, "/proposals", `{"title":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestProposalHandlerSubmitConflict(t *testing.T) {
	srv := &fakeProposalSrv{err: appErrors.SchedulingConflict(2, "2026-03-14", "10:00 AM")}
	r := newProposalRouter(srv)

	rec, envelope := serve(r, http.MethodPost, "/proposals", `{"title":"Expo","date":"2026-03-14","time":"10:00 AM"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SCHEDULING_CONFLICT", envelope.Error.Code)
	assert.EqualValues(t, 2, envelope.Error.Details["conflictingId"])
}

func TestProposalHandlerMissingFieldStatus(t *testing.T) {
	srv := &fakeProposalSrv{err: appErrors.MissingField("title")}
	r := newProposalRouter(srv)

	rec, envelope := serve(r, http.MethodPost, "/proposals", `{"date":"2026-03-14"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "MISSING_REQUIRED_FIELD", envelope.Error.Code)
	assert.Equal(t, "title", envelope.Error.Details["field"])
}

func TestProposalHandlerListBindsQuery(t *testing.T) {
	srv := &fakeProposalSrv{
		items:      []models.Proposal{{ID: 1}},
		pagination: &models.Pagination{Page: 2, PageSize: 1, TotalCount: 3},
	}
	r := newProposalRouter(srv)

	rec, envelope := serve(r, http.MethodGet, "/proposals?status=pending&q=fair&page=2&pageSize=1", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ProposalQuery{Status: "pending", Search: "fair", Page: 2, PageSize: 1}, srv.lastQuery)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 3, envelope.Pagination.TotalCount)
}

func TestProposalHandlerListRejectsBadPage(t *testing.T) {
	r := newProposalRouter(&fakeProposalSrv{})

	rec, _ := serve(r, http.MethodGet, "/proposals?page=abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposalHandlerSummaryCacheMeta(t *testing.T) {
	srv := &fakeProposalSrv{summary: &models.ProposalSummary{Total: 5}, summaryHit: true}
	r := newProposalRouter(srv)

	rec, envelope := serve(r, http.MethodGet, "/proposals/summary", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestProposalHandlerCalendarRange(t *testing.T) {
	srv := &fakeProposalSrv{days: []models.CalendarDay{{Date: "2026-03-14"}}}
	r := newProposalRouter(srv)

	rec, _ := serve(r, http.MethodGet, "/proposals/calendar?from=2026-03-01&to=2026-03-31", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.CalendarQuery{From: "2026-03-01", To: "2026-03-31"}, srv.lastRange)
}

func TestProposalHandlerInvalidID(t *testing.T) {
	r := newProposalRouter(&fakeProposalSrv{})

	for _, path := range []string{"/proposals/abc", "/proposals/0", "/proposals/-4"} {
		rec, _ := serve(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestProposalHandlerGetNotFound(t *testing.T) {
	srv := &fakeProposalSrv{err: appErrors.NotFound("proposal", int64(99))}
	r := newProposalRouter(srv)

	rec, _ := serve(r, http.MethodGet, "/proposals/99", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(99), srv.lastID)
}

func TestProposalHandlerEdit(t *testing.T) {
	srv := &fakeProposalSrv{proposal: &models.Proposal{ID: 5, Status: models.ProposalStatusPending}}
	r := newProposalRouter(srv)

	rec, _ := serve(r, http.MethodPatch, "/proposals/5",
		`{"title":"Foundation Week Debate","date":"2026-03-21","time":"3:00 PM","newAttachments":[{"name":"rules.pdf"}]}`,
		map[string]string{"X-Actor": "debate@campus.edu"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), srv.lastID)
	assert.Equal(t, "2026-03-21", srv.editReq.Date)
	require.Len(t, srv.editReq.NewAttachments, 1)
	assert.Equal(t, "debate@campus.edu", srv.lastActor)
}

func TestProposalHandlerApprove(t *testing.T) {
	srv := &fakeProposalSrv{proposal: &models.Proposal{ID: 3, Status: models.ProposalStatusApproved}}
	r := newProposalRouter(srv)

	rec, _ := serve(r, http.MethodPost, "/proposals/3/approve", "", map[string]string{"X-Actor": "dean"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), srv.lastID)
	assert.Equal(t, "dean", srv.lastActor)
}

func TestProposalHandlerDeclineWithAndWithoutBody(t *testing.T) {
	srv := &fakeProposalSrv{proposal: &models.Proposal{ID: 4, Status: models.ProposalStatusDeclined}}
	r := newProposalRouter(srv)

	rec, _ := serve(r, http.MethodPost, "/proposals/4/decline", `{"reason":"Venue unavailable"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Venue unavailable", srv.lastReason)

	rec, _ = serve(r, http.MethodPost, "/proposals/4/decline", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.lastReason)

	rec, _ = serve(r, http.MethodPost, "/proposals/4/decline", `{"reason":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposalHandlerNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewProposalHandler(nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/proposals", nil)

	h.List(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
