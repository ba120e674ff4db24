package domain

import "time"

// SoftDelete is embedded by entities that are never physically removed.
// Deleted rows stay in the database for audit purposes, default queries
// exclude them.
type SoftDelete struct {
	IsDeleted bool       `gorm:"column:is_deleted;index"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

// Deleted returns true if the entity has been soft-deleted.
func (s *SoftDelete) Deleted() bool {
	return s.IsDeleted
}

// MarkDeleted flags the entity as deleted. The call is idempotent: a second
// call leaves DeletedAt at its first-set value and returns false.
func (s *SoftDelete) MarkDeleted(now time.Time) bool {
	if s.IsDeleted {
		return false
	}

	s.IsDeleted = true
	s.DeletedAt = &now

	return true
}

// OwnershipEdges declares the parent→child relations along which a soft delete
// cascades. The repository walks this set recursively within a single
// transaction; keeping the edges as a static table makes the cascade set
// auditable by inspection.
var OwnershipEdges = map[string][]string{
	"users":      {"strategies"},
	"strategies": {"orders", "signals", "backtest_results"},
	"orders":     {"trades"},
}
