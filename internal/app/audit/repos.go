package audit

import (
	"context"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type ManagerDatabaseRepo interface {
	GetAuditEntries(ctx context.Context) ([]domain.AuditLogEntry, error)
	GetRecordAuditEntries(ctx context.Context, table string, recordId uint64) ([]domain.AuditLogEntry, error)
	GetUserAuditEntries(ctx context.Context, userId domain.UserId) ([]domain.AuditLogEntry, error)
}
