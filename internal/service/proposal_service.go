package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

const (
	defaultProposalPageSize = 50
	maxProposalPageSize     = 200
	defaultUpcomingLimit    = 5
)

// DefaultSubmittedTo is the reviewing office recorded when a submitter names none.
const DefaultSubmittedTo = "Student Affairs Office"

type proposalStore interface {
	NextID(ctx context.Context) int64
	Insert(ctx context.Context, proposal models.Proposal) error
	Update(ctx context.Context, proposal models.Proposal) error
	FindByID(ctx context.Context, id int64) (*models.Proposal, error)
	List(ctx context.Context) ([]models.Proposal, error)
	FindActiveConflict(ctx context.Context, slot models.Slot, excludeID int64) (*models.Proposal, error)
}

type proposalAuditor interface {
	Record(ctx context.Context, log *models.AuditLog)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ProposalServiceConfig tunes defaults for the proposal engine.
type ProposalServiceConfig struct {
	DefaultSubmittedTo string
	UpcomingLimit      int
	SummaryTTL         time.Duration
}

// ProposalService owns the proposal lifecycle: validation, booking conflicts,
// status transitions and the read view. Mutations are serialised.
type ProposalService struct {
	repo      proposalStore
	machine   *ProposalMachine
	validator *validator.Validate
	audit     proposalAuditor
	cache     summaryCache
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ProposalServiceConfig
	now       func() time.Time

	mu          sync.Mutex
	idempotency map[string]int64
}

// NewProposalService constructs the service.
func NewProposalService(repo proposalStore, machine *ProposalMachine, validate *validator.Validate, audit proposalAuditor, cache summaryCache, metrics *MetricsService, cfg ProposalServiceConfig, logger *zap.Logger) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.DefaultSubmittedTo) == "" {
		cfg.DefaultSubmittedTo = DefaultSubmittedTo
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = defaultUpcomingLimit
	}
	registerProposalValidations(validate)
	return &ProposalService{
		repo:        repo,
		machine:     machine,
		validator:   validate,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
		idempotency: make(map[string]int64),
	}
}

func registerProposalValidations(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
}

// Submit validates and stores a new Pending proposal.
func (s *ProposalService) Submit(ctx context.Context, req dto.SubmitProposalRequest, actor string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if id, ok := s.idempotency[key]; ok {
			existing, err := s.repo.FindByID(ctx, id)
			if err == nil {
				return existing, nil
			}
			delete(s.idempotency, key)
		}
	}

	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureSlotFree(ctx, models.Slot{Date: req.Date, Time: req.Time}, 0); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	proposal := models.Proposal{
		ID:          s.repo.NextID(ctx),
		Status:      models.ProposalStatusPending,
		Attachments: append([]models.Attachment{}, req.Attachments...),
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	s.applyFields(&proposal, req.ProposalFields)

	if err := s.repo.Insert(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proposal")
	}
	if key != "" {
		s.idempotency[key] = proposal.ID
	}

	s.afterMutation(ctx, "submit", models.AuditActionProposalSubmit, nil, &proposal, actor)
	s.logger.Info("proposal submitted", zap.Int64("proposal_id", proposal.ID), zap.String("date", proposal.Date))
	out := proposal.Clone()
	return &out, nil
}

// Edit replaces the editable fields of a proposal, appends new attachments
// and returns it to Pending. Edits are accepted from any status.
func (s *ProposalService) Edit(ctx context.Context, id int64, req dto.EditProposalRequest, actor string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureSlotFree(ctx, models.Slot{Date: req.Date, Time: req.Time}, id); err != nil {
		return nil, err
	}

	next, err := s.machine.Transition(proposal.Status, EventResubmit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resubmit proposal")
	}

	from := proposal.Status
	updated := proposal.Clone()
	s.applyFields(&updated, req.ProposalFields)
	updated.Attachments = append(updated.Attachments, req.NewAttachments...)
	updated.Status = next
	updated.DeclineReason = ""
	updated.ReviewedBy = ""
	updated.ReviewedAt = nil
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "resubmit", models.AuditActionProposalEdit, &from, &updated, actor)
	s.logger.Info("proposal resubmitted", zap.Int64("proposal_id", id), zap.String("from_status", string(from)))
	out := updated.Clone()
	return &out, nil
}

// Approve marks a proposal Approved. Approving an Approved proposal returns
// it unchanged. A Declined proposal must still have its slot free.
func (s *ProposalService) Approve(ctx context.Context, id int64, actor string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status == models.ProposalStatusApproved {
		return proposal, nil
	}
	if !proposal.Status.Active() {
		if err := s.ensureSlotFree(ctx, proposal.Slot(), id); err != nil {
			return nil, err
		}
	}

	next, err := s.machine.Transition(proposal.Status, EventApprove)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve proposal")
	}

	from := proposal.Status
	now := s.now().UTC()
	updated := proposal.Clone()
	updated.Status = next
	updated.DeclineReason = ""
	updated.ReviewedBy = strings.TrimSpace(actor)
	updated.ReviewedAt = &now
	updated.UpdatedAt = now

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "approve", models.AuditActionProposalApprove, &from, &updated, actor)
	s.logger.Info("proposal approved", zap.Int64("proposal_id", id))
	out := updated.Clone()
	return &out, nil
}

// Decline marks a proposal Declined with a trimmed reason, substituting the
// default placeholder when the reason is empty.
func (s *ProposalService) Decline(ctx context.Context, id int64, reason, actor string) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := s.machine.Transition(proposal.Status, EventDecline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decline proposal")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.DefaultDeclineReason
	}

	from := proposal.Status
	now := s.now().UTC()
	updated := proposal.Clone()
	updated.Status = next
	updated.DeclineReason = reason
	updated.ReviewedBy = strings.TrimSpace(actor)
	updated.ReviewedAt = &now
	updated.UpdatedAt = now

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "decline", models.AuditActionProposalDecline, &from, &updated, actor)
	s.logger.Info("proposal declined", zap.Int64("proposal_id", id), zap.String("reason", reason))
	out := updated.Clone()
	return &out, nil
}

// Get returns a single proposal.
func (s *ProposalService) Get(ctx context.Context, id int64) (*models.Proposal, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of the sorted, filtered read view.
func (s *ProposalService) List(ctx context.Context, query dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error) {
	filter, err := buildProposalFilter(query)
	if err != nil {
		return nil, nil, err
	}
	view, err := s.View(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	total := len(view)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	page := view[start:end]
	return page, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// View returns every proposal matching filter in read-view order, ignoring
// pagination.
func (s *ProposalService) View(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	sorted := SortByDateDesc(items)
	return FilterProposals(sorted, filter.Status, filter.Search), nil
}

// Summary reports status counts and the next active proposals on or after
// today. The boolean reports whether the payload came from cache.
func (s *ProposalService) Summary(ctx context.Context) (*models.ProposalSummary, bool, error) {
	if cached, ok := s.cachedSummary(ctx); ok {
		return cached, true, nil
	}

	// Mutations invalidate under s.mu, so a summary computed and stored
	// while holding it cannot outlive a newer write.
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cachedSummary(ctx); ok {
		return cached, true, nil
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise proposals")
	}

	now := s.now().UTC()
	today := now.Format(models.DateLayout)
	byStatus := make(map[models.ProposalStatus]int, 3)
	for _, status := range []models.ProposalStatus{models.ProposalStatusPending, models.ProposalStatusApproved, models.ProposalStatusDeclined} {
		status := status
		byStatus[status] = lo.CountBy(items, func(p models.Proposal) bool { return p.Status == status })
	}

	upcoming := lo.Filter(items, func(p models.Proposal, _ int) bool {
		return p.Status.Active() && p.Date >= today
	})
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })
	if len(upcoming) > s.cfg.UpcomingLimit {
		upcoming = upcoming[:s.cfg.UpcomingLimit]
	}

	summary := &models.ProposalSummary{
		Total:       len(items),
		ByStatus:    byStatus,
		Upcoming:    upcoming,
		GeneratedAt: now,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, ProposalSummaryCacheKey, summary, s.cfg.SummaryTTL)
	}
	return summary, false, nil
}

func (s *ProposalService) cachedSummary(ctx context.Context) (*models.ProposalSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached models.ProposalSummary
	if hit, _ := s.cache.Get(ctx, ProposalSummaryCacheKey, &cached); hit {
		return &cached, true
	}
	return nil, false
}

// Calendar groups active proposals per date within the inclusive range.
// Empty bounds are open.
func (s *ProposalService) Calendar(ctx context.Context, query dto.CalendarQuery) ([]models.CalendarDay, error) {
	from := strings.TrimSpace(query.From)
	to := strings.TrimSpace(query.To)
	for _, bound := range []struct{ field, value string }{{"from", from}, {"to", to}} {
		if bound.value == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, bound.value); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+bound.field+" date").WithDetail("field", bound.field)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	active := lo.Filter(items, func(p models.Proposal, _ int) bool {
		if !p.Status.Active() {
			return false
		}
		if from != "" && p.Date < from {
			return false
		}
		return to == "" || p.Date <= to
	})

	grouped := lo.GroupBy(active, func(p models.Proposal) string { return p.Date })
	dates := lo.Keys(grouped)
	sort.Strings(dates)
	return lo.Map(dates, func(date string, _ int) models.CalendarDay {
		return models.CalendarDay{Date: date, Proposals: grouped[date]}
	}), nil
}

// SortByDateDesc returns a copy ordered by date descending. Ties keep
// collection order. ISO dates order lexically.
func SortByDateDesc(items []models.Proposal) []models.Proposal {
	out := append([]models.Proposal(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// FilterProposals applies the status tab and case-insensitive substring
// search. It never reorders.
func FilterProposals(items []models.Proposal, status *models.ProposalStatus, search string) []models.Proposal {
	term := strings.ToLower(strings.TrimSpace(search))
	return lo.Filter(items, func(p models.Proposal, _ int) bool {
		if status != nil && p.Status != *status {
			return false
		}
		if term == "" {
			return true
		}
		for _, field := range []string{p.Title, p.Organizer, p.Location, p.Description, p.SubmittedBy} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

func buildProposalFilter(query dto.ProposalQuery) (models.ProposalFilter, error) {
	filter := models.ProposalFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultProposalPageSize
	}
	if filter.PageSize > maxProposalPageSize {
		filter.PageSize = maxProposalPageSize
	}
	raw := strings.TrimSpace(query.Status)
	if raw != "" && !strings.EqualFold(raw, "all") {
		status, err := models.ParseProposalStatus(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, err.Error()).WithDetail("field", "status")
		}
		filter.Status = &status
	}
	return filter, nil
}

func (s *ProposalService) validate(req interface{}) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Title":
			return appErrors.MissingField("title")
		case "Date":
			return appErrors.MissingField("date")
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload").
		WithDetail("field", verrs[0].Namespace())
}

func (s *ProposalService) ensureSlotFree(ctx context.Context, slot models.Slot, excludeID int64) error {
	existing, err := s.repo.FindActiveConflict(ctx, slot, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule")
	}
	if existing == nil {
		return nil
	}
	s.metrics.RecordProposalConflict()
	s.logger.Info("proposal slot already booked",
		zap.Int64("conflicting_id", existing.ID),
		zap.String("date", slot.Date),
		zap.String("time", slot.Time))
	return appErrors.SchedulingConflict(existing.ID, slot.Date, slot.Time)
}

func (s *ProposalService) applyFields(p *models.Proposal, fields dto.ProposalFields) {
	p.Title = strings.TrimSpace(fields.Title)
	p.Date = fields.Date
	p.Time = fields.Time
	p.Location = fields.Location
	p.Organizer = fields.Organizer
	p.Description = fields.Description
	if by := strings.TrimSpace(fields.SubmittedBy); by != "" {
		p.SubmittedBy = by
	}
	if to := strings.TrimSpace(fields.SubmittedTo); to != "" {
		p.SubmittedTo = to
	} else if p.SubmittedTo == "" {
		p.SubmittedTo = s.cfg.DefaultSubmittedTo
	}
}

func (s *ProposalService) afterMutation(ctx context.Context, event, action string, from *models.ProposalStatus, proposal *models.Proposal, actor string) {
	s.metrics.RecordProposalTransition(event)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, ProposalCachePattern)
	}
	if s.audit == nil {
		return
	}
	snapshot, err := json.Marshal(proposal)
	if err != nil {
		s.logger.Warn("failed to encode audit snapshot", zap.Int64("proposal_id", proposal.ID), zap.Error(err))
	}
	log := &models.AuditLog{
		Action:     action,
		ProposalID: proposal.ID,
		Actor:      optionalString(actor),
		ToStatus:   string(proposal.Status),
		Snapshot:   snapshot,
		CreatedAt:  s.now().UTC(),
	}
	if from != nil {
		log.FromStatus = optionalString(string(*from))
	}
	s.audit.Record(ctx, log)
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
