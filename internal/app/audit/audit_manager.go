package audit

import (
	"context"
	"fmt"

	"github.com/ai-trader/trader-portal/internal/domain"
)

// Manager provides read access to the audit trail. The trail itself is
// written by the persistence layer, nothing in the application tier can add,
// change or remove entries.
type Manager struct {
	db ManagerDatabaseRepo
}

func NewManager(db ManagerDatabaseRepo) *Manager {
	return &Manager{db: db}
}

// GetAll returns the complete audit trail, oldest entries first. Admins only.
func (m *Manager) GetAll(ctx context.Context) ([]domain.AuditLogEntry, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	entries, err := m.db.GetAuditEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	return entries, nil
}

// GetForRecord returns the mutation history of a single record. Admins only.
func (m *Manager) GetForRecord(ctx context.Context, table string, recordId uint64) (
	[]domain.AuditLogEntry,
	error,
) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	entries, err := m.db.GetRecordAuditEntries(ctx, table, recordId)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries of %s #%d: %w", table, recordId, err)
	}

	return entries, nil
}

// GetForUser returns all mutations attributed to one principal. Users can
// query their own trail, everything else needs admin rights.
func (m *Manager) GetForUser(ctx context.Context, userId domain.UserId) ([]domain.AuditLogEntry, error) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	entries, err := m.db.GetUserAuditEntries(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries of user %d: %w", userId, err)
	}

	return entries, nil
}
