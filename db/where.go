package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/DocDB/core"
	"github.com/nickyhof/DocDB/sql"
)

// MatchRecord evaluates a parsed WHERE clause against one record. The
// clause is a disjunction of conjunction groups: the record matches if
// every condition of at least one group holds.
func MatchRecord(record core.Record, clause sql.WhereClause, params []any) bool {
	for _, group := range clause.Groups {
		if matchGroup(record, group, params) {
			return true
		}
	}
	return false
}

func matchGroup(record core.Record, group []sql.Condition, params []any) bool {
	for _, condition := range group {
		if !matchCondition(record, condition, params) {
			return false
		}
	}
	return true
}

func matchCondition(record core.Record, condition sql.Condition, params []any) bool {
	value, present := lookupField(record, condition.Field)

	switch condition.Op {
	case sql.CondEqParam:
		if condition.Param >= len(params) {
			return false
		}
		return core.FieldString(value) == core.FieldString(params[condition.Param])
	case sql.CondEqBool:
		actual, ok := boolValue(value)
		return ok && actual == condition.Bool
	case sql.CondGtNow:
		// Absent or empty expiry fields never expire.
		if !present || value == nil || core.FieldString(value) == "" {
			return true
		}
		when, ok := timeValue(value)
		return ok && when.After(time.Now())
	case sql.CondLtNow:
		// Absent or empty schedule fields are always due.
		if !present || value == nil || core.FieldString(value) == "" {
			return true
		}
		when, ok := timeValue(value)
		return ok && when.Before(time.Now())
	}
	return false
}

// lookupField resolves a possibly alias-qualified field reference
// against a record. Stored records are flat, so only the final segment
// is looked up.
func lookupField(record core.Record, ref string) (any, bool) {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		ref = ref[i+1:]
	}
	value, present := record[ref]
	return value, present
}

func boolValue(value any) (result, ok bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(typed) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// timeValue parses the stored representations a time field can take:
// time.Time itself, RFC 3339 strings as written by core.Timestamp,
// and numeric Unix-epoch seconds.
func timeValue(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case time.Time:
		return typed, true
	case string:
		if when, err := time.Parse(time.RFC3339Nano, typed); err == nil {
			return when, true
		}
		if when, err := time.Parse(time.RFC3339, typed); err == nil {
			return when, true
		}
		if epoch, err := strconv.ParseFloat(typed, 64); err == nil {
			return time.Unix(int64(epoch), 0), true
		}
	case float64:
		return time.Unix(int64(typed), 0), true
	case int64:
		return time.Unix(typed, 0), true
	case int:
		return time.Unix(int64(typed), 0), true
	}
	return time.Time{}, false
}
