package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// auditTrail writes audit logs. Successful mutations are recorded inside their
// transaction; rejected ones are recorded afterwards on their own.
type auditTrail struct {
	repo    AuditRepository
	idGen   IDGenerator
	metrics *metrics.Metrics
}

type auditEntry struct {
	action       domain.AuditAction
	resourceType string
	resourceID   string
	before       domain.JSON
	after        domain.JSON
}

func (a *auditTrail) newLog(ctx context.Context, e auditEntry, status domain.AuditStatus, now time.Time) *domain.AuditLog {
	return &domain.AuditLog{
		ID:           a.idGen.Generate(),
		Principal:    principalName(ctx),
		Action:       string(e.action),
		ResourceType: e.resourceType,
		ResourceID:   e.resourceID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  e.before,
		AfterState:   e.after,
		Status:       string(status),
		CreatedAt:    now,
	}
}

func (a *auditTrail) success(ctx context.Context, tx Transaction, e auditEntry, now time.Time) error {
	if a.repo == nil {
		return nil
	}

	if err := a.repo.CreateTx(ctx, tx, a.newLog(ctx, e, domain.AuditStatusSuccess, now)); err != nil {
		return err
	}

	if a.metrics != nil {
		a.metrics.AuditLogsCreated.WithLabelValues(string(e.action), string(domain.AuditStatusSuccess)).Inc()
	}

	return nil
}

func (a *auditTrail) failure(ctx context.Context, e auditEntry, cause error, now time.Time) {
	if a.repo == nil || cause == nil {
		return
	}

	status := domain.AuditStatusFailure
	if domain.CodeOf(cause) == domain.CodeUnknown {
		status = domain.AuditStatusError
	}

	log := a.newLog(ctx, e, status, now)
	log.ErrorMessage = cause.Error()

	if err := a.repo.Create(context.WithoutCancel(ctx), log); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", log.Action).Msg("failed to write audit log")
		return
	}

	if a.metrics != nil {
		a.metrics.AuditLogsCreated.WithLabelValues(string(e.action), string(status)).Inc()
	}
}
