package core

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a single table row: a mapping from field name to scalar or
// nested value. Values round-trip through JSON, so numbers load as float64.
type Record map[string]any

// Document is the full database: named tables plus an auxiliary
// key/value cache table. It is persisted as one JSON file.
type Document struct {
	Tables map[string][]Record `json:"tables"`
	Cache  map[string]string   `json:"cache,omitempty"`
}

func NewDocument() *Document {
	return &Document{
		Tables: make(map[string][]Record),
	}
}

// Table returns the named table, or nil if it was never written.
func (document *Document) Table(name string) []Record {
	return document.Tables[name]
}

// EnsureTable creates the named table collection if it does not exist.
// Tables are created lazily on first write and never dropped.
func (document *Document) EnsureTable(name string) {
	if document.Tables == nil {
		document.Tables = make(map[string][]Record)
	}
	if _, exists := document.Tables[name]; !exists {
		document.Tables[name] = make([]Record, 0)
	}
}

// Clone returns a structurally independent deep copy of the document.
// Mutations applied to the copy are invisible to the original.
func (document *Document) Clone() *Document {
	clone := NewDocument()
	for name, records := range document.Tables {
		cloned := make([]Record, len(records))
		for i, record := range records {
			cloned[i] = record.Clone()
		}
		clone.Tables[name] = cloned
	}
	if document.Cache != nil {
		clone.Cache = make(map[string]string, len(document.Cache))
		for key, value := range document.Cache {
			clone.Cache[key] = value
		}
	}
	return clone
}

// Clone returns a deep copy of the record.
func (record Record) Clone() Record {
	clone := make(Record, len(record))
	for field, value := range record {
		clone[field] = cloneValue(value)
	}
	return clone
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		nested := make(map[string]any, len(typed))
		for k, v := range typed {
			nested[k] = cloneValue(v)
		}
		return nested
	case []any:
		nested := make([]any, len(typed))
		for i, v := range typed {
			nested[i] = cloneValue(v)
		}
		return nested
	default:
		return typed
	}
}

// ID returns the record id in canonical string form.
func (record Record) ID() string {
	return FieldString(record["id"])
}

// FieldString returns the canonical string representation of a field
// value. Ordering and equality in the query layer compare these strings.
// Absent and null values map to the empty string.
func FieldString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a fractional part so 1 and 1.0 compare equal.
		if typed == float64(int64(typed)) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typed)
	}
}

// Timestamp returns the current wall-clock time in the stored format.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// StampCreated fills created_at and updated_at if the caller did not
// supply them.
func StampCreated(record Record) {
	now := Timestamp()
	if _, exists := record["created_at"]; !exists {
		record["created_at"] = now
	}
	if _, exists := record["updated_at"]; !exists {
		record["updated_at"] = now
	}
}

// StampUpdated refreshes updated_at.
func StampUpdated(record Record) {
	record["updated_at"] = Timestamp()
}
