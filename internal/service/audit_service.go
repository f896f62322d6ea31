package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
)

// AuditJobType tags queued proposal audit records.
const AuditJobType = "proposal_audit"

type auditDispatcher interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService hands lifecycle audit records to the background queue.
type AuditService struct {
	queue  auditDispatcher
	worker *AuditWorker
	logger *zap.Logger
}

// NewAuditService constructs the service. When queue is nil or rejects a
// job the worker handles the record inline.
func NewAuditService(queue auditDispatcher, worker *AuditWorker, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{queue: queue, worker: worker, logger: logger}
}

// Record schedules the audit record for persistence. Failures are logged and
// never surface to the lifecycle operation that produced the record.
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	if s == nil || log == nil {
		return
	}
	job := jobs.Job{Type: AuditJobType, Payload: log}
	if s.queue != nil {
		err := s.queue.Enqueue(ctx, job)
		if err == nil {
			return
		}
		s.logger.Warn("audit enqueue failed, writing inline", zap.Int64("proposal_id", log.ProposalID), zap.Error(err))
	}
	if s.worker == nil {
		return
	}
	if err := s.worker.Handle(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Int64("proposal_id", log.ProposalID), zap.Error(err))
	}
}

// AuditWorker persists queued audit records, or logs them when no store is
// configured.
type AuditWorker struct {
	store   auditStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditWorker constructs a worker. store and metrics may be nil.
func NewAuditWorker(store auditStore, metrics *MetricsService, logger *zap.Logger) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditWorker{store: store, metrics: metrics, logger: logger}
}

// Handle processes a queue job.
func (w *AuditWorker) Handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok || log == nil {
		return fmt.Errorf("audit job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if w.store == nil {
		fields := []zap.Field{
			zap.String("action", log.Action),
			zap.Int64("proposal_id", log.ProposalID),
			zap.String("to_status", log.ToStatus),
		}
		if log.FromStatus != nil {
			fields = append(fields, zap.String("from_status", *log.FromStatus))
		}
		if log.Actor != nil {
			fields = append(fields, zap.String("actor", *log.Actor))
		}
		w.logger.Info("proposal audit", fields...)
		return nil
	}
	start := time.Now()
	err := w.store.CreateAuditLog(ctx, log)
	w.metrics.ObserveDBQuery("create_audit_log", time.Since(start))
	return err
}
