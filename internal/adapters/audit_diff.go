package adapters

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/ai-trader/trader-portal/internal/domain"
)

// mutatedRows flattens the statement destination into the individual rows
// touched by the mutation. Batch inserts pass a slice, everything else a
// single struct.
func mutatedRows(rv reflect.Value) ([]reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		rows := make([]reflect.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			rows = append(rows, reflect.Indirect(rv.Index(i)))
		}
		return rows, nil
	case reflect.Struct:
		return []reflect.Value{rv}, nil
	default:
		return nil, fmt.Errorf("unsupported destination kind %s", rv.Kind())
	}
}

// primaryKeyValue extracts the integer primary key of the given row.
// Audited tables are restricted to a single integer primary key, everything
// else cannot be attributed to one record in the trail.
func primaryKeyValue(tx *gorm.DB, rv reflect.Value) (uint64, error) {
	pk := tx.Statement.Schema.PrioritizedPrimaryField
	if pk == nil || len(tx.Statement.Schema.PrimaryFields) != 1 {
		return 0, fmt.Errorf("audited tables need a single primary key column")
	}

	value, isZero := pk.ValueOf(tx.Statement.Context, rv)
	if isZero {
		return 0, nil
	}

	switch idValue := reflect.ValueOf(value); idValue.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		id := idValue.Int()
		if id < 0 {
			return 0, fmt.Errorf("negative primary key %d cannot be audited", id)
		}
		return uint64(id), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return idValue.Uint(), nil
	default:
		return 0, fmt.Errorf("audited tables need an integer primary key, got %T", value)
	}
}

// snapshotRow serializes all persisted columns of one row, used for INSERT
// and DELETE entries.
func snapshotRow(tx *gorm.DB, row reflect.Value) (domain.AuditChanges, error) {
	changes := make(domain.AuditChanges, len(tx.Statement.Schema.Fields))

	for _, field := range tx.Statement.Schema.Fields {
		if field.DBName == "" {
			continue
		}

		raw, _ := field.ValueOf(tx.Statement.Context, row)
		value, err := serializeAuditValue(raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.DBName, err)
		}

		changes[field.DBName] = value
	}

	return changes, nil
}

// loadCurrentRow fetches the persisted state of the record that is about to
// be updated or deleted. The read runs on the transaction connection, so it
// observes all earlier writes of the same transaction.
func loadCurrentRow(tx *gorm.DB, recordId uint64) (any, bool, error) {
	stmt := tx.Statement
	dest := reflect.New(stmt.Schema.ModelType).Interface()

	result := auditSession(tx).
		Table(stmt.Table).
		Where(stmt.Schema.PrioritizedPrimaryField.DBName+" = ?", recordId).
		Limit(1).
		Find(dest)
	if result.Error != nil {
		return nil, false, result.Error
	}

	return dest, result.RowsAffected > 0, nil
}

// diffRow compares the persisted row state against the pending update and
// returns the changed columns as old/new pairs. Automatically managed
// timestamp columns are excluded, a save that touches nothing else yields an
// empty diff and therefore no audit entry.
func diffRow(tx *gorm.DB, oldRow any) (domain.AuditChanges, error) {
	stmt := tx.Statement
	oldValue := reflect.Indirect(reflect.ValueOf(oldRow))
	changes := domain.AuditChanges{}

	appendChange := func(field *schema.Field, oldRaw, newRaw any) error {
		if normalizedEqual(oldRaw, newRaw) {
			return nil
		}

		oldSerialized, err := serializeAuditValue(oldRaw)
		if err != nil {
			return fmt.Errorf("column %s: %w", field.DBName, err)
		}
		newSerialized, err := serializeAuditValue(newRaw)
		if err != nil {
			return fmt.Errorf("column %s: %w", field.DBName, err)
		}

		changes[field.DBName] = domain.FieldChange{Old: oldSerialized, New: newSerialized}
		return nil
	}

	if updates, ok := stmt.Dest.(map[string]any); ok {
		// partial update, only the given columns are compared
		for key, newRaw := range updates {
			field := stmt.Schema.LookUpField(key)
			if field == nil || field.DBName == "" || skippedInDiff(field) {
				continue
			}

			oldRaw, _ := field.ValueOf(stmt.Context, oldValue)
			if err := appendChange(field, oldRaw, newRaw); err != nil {
				return nil, err
			}
		}

		return changes, nil
	}

	newValue := reflect.Indirect(reflect.ValueOf(stmt.Dest))
	if newValue.Kind() != reflect.Struct || newValue.Type() != stmt.Schema.ModelType {
		newValue = stmt.ReflectValue
	}
	if newValue.Kind() != reflect.Struct {
		return nil, fmt.Errorf("unsupported update destination %T", stmt.Dest)
	}

	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" || skippedInDiff(field) {
			continue
		}

		oldRaw, _ := field.ValueOf(stmt.Context, oldValue)
		newRaw, _ := field.ValueOf(stmt.Context, newValue)
		if err := appendChange(field, oldRaw, newRaw); err != nil {
			return nil, err
		}
	}

	return changes, nil
}

// skippedInDiff excludes primary keys and server-managed timestamps from
// update diffs. Without this exclusion every save would produce an entry for
// the updated_at bump alone.
func skippedInDiff(field *schema.Field) bool {
	return field.PrimaryKey || field.AutoCreateTime != 0 || field.AutoUpdateTime != 0
}

// serializeAuditValue converts one column value into its audit trail
// representation: timestamps become RFC 3339 UTC strings, redacted strings
// stay hidden, pointers collapse to their value or null.
func serializeAuditValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch value := v.(type) {
	case domain.PrivateString:
		return value.String(), nil
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano), nil
	case *time.Time:
		if value == nil {
			return nil, nil
		}
		return value.UTC().Format(time.RFC3339Nano), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Map, reflect.Slice, reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("value of type %T is not serializable: %w", v, err)
		}
		return json.RawMessage(raw), nil
	default:
		return nil, fmt.Errorf("value of type %T is not serializable", v)
	}
}

// normalizedEqual compares two raw column values independent of their
// concrete Go types, so a typed field value and an untyped map value of the
// same content count as equal.
func normalizedEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

func normalizeValue(v any) any {
	if v == nil {
		return nil
	}

	switch value := v.(type) {
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if value == nil {
			return nil
		}
		return value.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() <= math.MaxInt64 {
			return int64(rv.Uint())
		}
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
