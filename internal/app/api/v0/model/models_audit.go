package model

import (
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type AuditEntry struct {
	Id        uint64         `json:"Id"`
	TableName string         `json:"TableName"`
	RecordId  uint64         `json:"RecordId"`
	Action    string         `json:"Action"`
	ChangedBy *uint64        `json:"ChangedBy,omitempty"`
	Timestamp time.Time      `json:"Timestamp"`
	Changes   map[string]any `json:"Changes"`
}

func NewAuditEntry(src *domain.AuditLogEntry) *AuditEntry {
	e := &AuditEntry{
		Id:        src.Id,
		TableName: src.Table,
		RecordId:  src.RecordId,
		Action:    string(src.Action),
		Timestamp: src.Timestamp,
		Changes:   src.Changes,
	}

	if src.ChangedBy != nil {
		id := uint64(*src.ChangedBy)
		e.ChangedBy = &id
	}

	return e
}

func NewAuditEntries(src []domain.AuditLogEntry) []AuditEntry {
	results := make([]AuditEntry, len(src))
	for i := range src {
		results[i] = *NewAuditEntry(&src[i])
	}

	return results
}
