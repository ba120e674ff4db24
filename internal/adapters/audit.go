package adapters

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ai-trader/trader-portal/internal/domain"
)

const auditPluginName = "trader:auditing"

// RegisterAuditing installs the mutation interceptor on the given database
// handle. Every INSERT, UPDATE and DELETE on one of the given tables is
// recorded as a domain.AuditLogEntry within the same transaction as the
// mutation itself, so the trail commits and rolls back with the data.
//
// The call is idempotent: registering a second time on the same handle only
// extends the set of audited tables and observers, the callbacks stay
// installed once.
func RegisterAuditing(db *gorm.DB, tables []string, observers ...AuditObserver) error {
	if registered, ok := db.Config.Plugins[auditPluginName]; ok {
		plugin, ok := registered.(*auditPlugin)
		if !ok {
			return fmt.Errorf("plugin %s is already registered with a foreign type", auditPluginName)
		}
		plugin.addTables(tables)
		plugin.addObservers(observers)
		return nil
	}

	plugin := &auditPlugin{tables: map[string]struct{}{}}
	plugin.addTables(tables)
	plugin.addObservers(observers)

	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to install auditing plugin: %w", err)
	}

	return nil
}

// AuditObserver is notified about every successfully written audit entry,
// used to feed the metrics exporter.
type AuditObserver interface {
	CountAuditEntry(table string, action domain.AuditAction)
}

// auditPlugin hooks into the Gorm callback chains of all mutating operations.
// The *gorm.DB passed to a callback carries the in-flight transaction, a
// session derived from it shares the transaction connection, which is what
// keeps audit rows atomic with the audited mutation.
type auditPlugin struct {
	mu        sync.RWMutex
	tables    map[string]struct{}
	observers []AuditObserver
}

func (p *auditPlugin) Name() string {
	return auditPluginName
}

func (p *auditPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("trader:audit_create", p.afterCreate); err != nil {
		return fmt.Errorf("failed to register create callback: %w", err)
	}
	if err := db.Callback().Update().Before("gorm:update").Register("trader:audit_update", p.beforeUpdate); err != nil {
		return fmt.Errorf("failed to register update callback: %w", err)
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("trader:audit_delete", p.beforeDelete); err != nil {
		return fmt.Errorf("failed to register delete callback: %w", err)
	}

	return nil
}

func (p *auditPlugin) addTables(tables []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, table := range tables {
		if table == domain.AuditTableName {
			continue // the trail itself is never audited
		}
		p.tables[table] = struct{}{}
	}
}

func (p *auditPlugin) addObservers(observers []AuditObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observers = append(p.observers, observers...)
}

func (p *auditPlugin) auditable(tx *gorm.DB) bool {
	if tx.Error != nil || tx.Statement.Schema == nil || tx.Statement.Table == domain.AuditTableName {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.tables[tx.Statement.Table]
	return ok
}

func (p *auditPlugin) afterCreate(tx *gorm.DB) {
	if !p.auditable(tx) {
		return
	}

	rows, err := mutatedRows(tx.Statement.ReflectValue)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
		return
	}

	for _, row := range rows {
		recordId, err := primaryKeyValue(tx, row)
		if err != nil {
			_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
			return
		}
		if recordId == 0 {
			continue // row was skipped by an ON CONFLICT clause, nothing was inserted
		}

		changes, err := snapshotRow(tx, row)
		if err != nil {
			_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
			return
		}

		p.writeEntry(tx, domain.AuditActionInsert, recordId, changes)
	}
}

func (p *auditPlugin) beforeUpdate(tx *gorm.DB) {
	if !p.auditable(tx) {
		return
	}

	recordId, err := primaryKeyValue(tx, tx.Statement.ReflectValue)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
		return
	}
	if recordId == 0 {
		_ = tx.AddError(fmt.Errorf("auditing %s: update without primary key is not allowed on audited tables",
			tx.Statement.Table))
		return
	}

	oldRow, found, err := loadCurrentRow(tx, recordId)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: failed to load current row %d: %w", tx.Statement.Table, recordId, err))
		return
	}
	if !found {
		return // the update will not touch any row
	}

	changes, err := diffRow(tx, oldRow)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
		return
	}
	if len(changes) == 0 {
		return // nothing changes, keep the trail free of no-op entries
	}

	p.writeEntry(tx, domain.AuditActionUpdate, recordId, changes)
}

func (p *auditPlugin) beforeDelete(tx *gorm.DB) {
	if !p.auditable(tx) {
		return
	}

	recordId, err := primaryKeyValue(tx, tx.Statement.ReflectValue)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
		return
	}
	if recordId == 0 {
		_ = tx.AddError(fmt.Errorf("auditing %s: delete without primary key is not allowed on audited tables",
			tx.Statement.Table))
		return
	}

	oldRow, found, err := loadCurrentRow(tx, recordId)
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: failed to load current row %d: %w", tx.Statement.Table, recordId, err))
		return
	}
	if !found {
		return // the delete will not touch any row
	}

	changes, err := snapshotRow(tx, reflect.Indirect(reflect.ValueOf(oldRow)))
	if err != nil {
		_ = tx.AddError(fmt.Errorf("auditing %s: %w", tx.Statement.Table, err))
		return
	}

	p.writeEntry(tx, domain.AuditActionDelete, recordId, changes)
}

// writeEntry persists one audit row on the transaction connection of the
// intercepted mutation. A failure is attached to the transaction, which
// rolls back the audited mutation as well.
func (p *auditPlugin) writeEntry(tx *gorm.DB, action domain.AuditAction, recordId uint64, changes domain.AuditChanges) {
	entry := domain.AuditLogEntry{
		Table:     tx.Statement.Table,
		RecordId:  recordId,
		Action:    action,
		ChangedBy: domain.GetUserInfo(tx.Statement.Context).UserIdRef(),
		Timestamp: time.Now().UTC(),
		Changes:   changes,
	}

	if err := auditSession(tx).Create(&entry).Error; err != nil {
		_ = tx.AddError(fmt.Errorf("failed to write audit entry for %s #%d: %w", tx.Statement.Table, recordId, err))
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, observer := range p.observers {
		observer.CountAuditEntry(entry.Table, entry.Action)
	}
}

// auditSession derives a clean session that still runs on the connection of
// the in-flight transaction.
func auditSession(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
}
