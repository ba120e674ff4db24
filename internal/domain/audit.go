package domain

import (
	"time"
)

type AuditAction string

const (
	AuditActionInsert AuditAction = "INSERT"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditChanges holds the serialized change payload of one audit entry.
// For inserts and deletes it maps column names to row values, for updates it
// maps changed column names to FieldChange pairs.
type AuditChanges map[string]any

// FieldChange is the old/new value pair of one changed column.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditTableName is the table that stores the mutation trail. Mutations of
// this table are never audited themselves.
const AuditTableName = "audit_logs"

// AuditLogEntry is one immutable record of a data mutation. Entries are
// written by the persistence layer in the same transaction as the mutation
// they describe, so no committed change can lack its trail.
type AuditLogEntry struct {
	Id uint64 `gorm:"primaryKey;autoIncrement;column:id"`

	Table     string      `gorm:"column:table_name;index:idx_audit_record"`
	RecordId  uint64      `gorm:"column:record_id;index:idx_audit_record"`
	Action    AuditAction `gorm:"column:action;index"`
	ChangedBy *UserId     `gorm:"column:changed_by;index"`
	Timestamp time.Time   `gorm:"column:timestamp;index"`

	Changes AuditChanges `gorm:"column:changes;serializer:json"`
}

func (a AuditLogEntry) TableName() string {
	return AuditTableName
}
