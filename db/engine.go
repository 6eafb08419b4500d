package db

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/nickyhof/DocDB/core"
	"github.com/nickyhof/DocDB/sql"
)

var (
	// ErrParamCount is returned when the number of ? markers in a
	// statement does not equal the number of bound parameters.
	ErrParamCount = errors.New("parameter count mismatch")

	// ErrDeleteRequiresWhere guards against unconditional deletes.
	ErrDeleteRequiresWhere = errors.New("DELETE requires a WHERE clause")
)

// Target is what a statement executes against: the shared document
// store, or a transaction connection's private snapshot. Persist is a
// no-op for snapshots; their changes reach disk at commit.
type Target interface {
	Document() *core.Document
	Persist() error
}

type Engine struct {
	// Aliases maps known legacy table names to their canonical name.
	// The dispatcher normalizes every statement's target table through
	// it before execution.
	Aliases map[string]string

	// MonotonicIDs switches insert id assignment to the legacy
	// max(id)+1 scheme. Single-writer only: two open snapshots compute
	// the same max and collide on commit.
	MonotonicIDs bool
}

func NewEngine() *Engine {
	return &Engine{}
}

// Execute parses and runs one statement against the target. Reads
// return a QueryResult, mutations a CommitResult. Statement kinds and
// predicate constructs outside the supported set fail before any
// mutation occurs.
func (engine *Engine) Execute(target Target, query string, params ...any) (Result, error) {
	statement, err := sql.NewParser(query).Parse()
	if err != nil {
		return nil, err
	}

	switch statement.Type() {
	case sql.SelectStatementType:
		return engine.executeSelect(target, statement.(sql.SelectStatement), params)
	case sql.InsertStatementType:
		return engine.executeInsert(target, statement.(sql.InsertStatement), params)
	case sql.UpdateStatementType:
		return engine.executeUpdate(target, statement.(sql.UpdateStatement), params)
	case sql.DeleteStatementType:
		return engine.executeDelete(target, statement.(sql.DeleteStatement), params)
	case sql.CreateTableStatementType:
		return engine.executeCreateTable(target, statement.(sql.CreateTableStatement))
	default:
		return nil, fmt.Errorf("%w: statement type %v", sql.ErrUnsupportedOperation, statement.Type())
	}
}

// tableName normalizes legacy table aliases to their canonical name.
func (engine *Engine) tableName(name string) string {
	if canonical, ok := engine.Aliases[name]; ok {
		return canonical
	}
	return name
}

func (engine *Engine) executeSelect(target Target, statement sql.SelectStatement, params []any) (Result, error) {
	if statement.Where.Params != len(params) {
		return nil, fmt.Errorf("%w: clause has %d placeholders, %d parameters bound",
			ErrParamCount, statement.Where.Params, len(params))
	}

	document := target.Document()
	table := document.Table(engine.tableName(statement.Table))

	var matched []core.Record
	if statement.Where.Empty() {
		matched = append(matched, table...)
	} else {
		for _, record := range table {
			if MatchRecord(record, statement.Where, params) {
				matched = append(matched, record)
			}
		}
	}

	if statement.CountAll {
		return QueryResult{
			Rows:  []core.Record{{"count": len(matched)}},
			Total: len(matched),
		}, nil
	}

	if len(statement.OrderBy) > 0 {
		sortRecords(matched, statement.OrderBy)
	}

	// Total reflects the pre-pagination match count; pagination metadata
	// depends on it.
	total := len(matched)
	page := paginate(matched, statement.Offset, statement.Limit)

	rows, err := projectRows(page, statement)
	if err != nil {
		return nil, err
	}

	if len(statement.Joins) > 0 {
		if err := enrichRows(document, engine, statement, page, rows, total); err != nil {
			return nil, err
		}
	}

	return QueryResult{Rows: rows, Total: total}, nil
}

func paginate(records []core.Record, offset, limit int) []core.Record {
	if offset > 0 {
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// projectRows materializes the output rows. Rows are always copies:
// enrichment attaches fields and callers may mutate, neither of which
// may leak into the stored records.
func projectRows(page []core.Record, statement sql.SelectStatement) ([]core.Record, error) {
	rows := make([]core.Record, len(page))

	if statement.Star && len(statement.Columns) == 0 {
		for i, record := range page {
			rows[i] = record.Clone()
		}
		return rows, nil
	}

	joined := make(map[string]bool, len(statement.Joins))
	for _, join := range statement.Joins {
		if join.Alias != "" {
			joined[join.Alias] = true
		}
		joined[join.Table] = true
	}

	for i, record := range page {
		if statement.Star {
			rows[i] = record.Clone()
		} else {
			rows[i] = make(core.Record)
		}
		for _, column := range statement.Columns {
			prefix, field := splitFieldRef(column.Expr)
			if joined[prefix] {
				// Enrichment resolves columns of joined tables.
				continue
			}
			output := column.Alias
			if output == "" {
				output = field
			}
			rows[i][output] = record[field]
		}
	}
	return rows, nil
}

// sortRecords orders by the string representation of each key's value;
// missing values sort as the empty string.
func sortRecords(records []core.Record, orderBy []sql.OrderByClause) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, clause := range orderBy {
			_, field := splitFieldRef(clause.Field)
			left := core.FieldString(records[i][field])
			right := core.FieldString(records[j][field])
			if left == right {
				continue
			}
			if clause.Descending {
				return left > right
			}
			return left < right
		}
		return false
	})
}

func (engine *Engine) executeInsert(target Target, statement sql.InsertStatement, params []any) (Result, error) {
	if len(params) != statement.Placeholders {
		return nil, fmt.Errorf("%w: statement has %d placeholders, %d parameters bound",
			ErrParamCount, statement.Placeholders, len(params))
	}

	record := make(core.Record)
	if statement.WholeRecord {
		switch typed := params[0].(type) {
		case core.Record:
			record = typed.Clone()
		case map[string]any:
			record = core.Record(typed).Clone()
		default:
			return nil, fmt.Errorf("whole-record insert parameter must be a field map, got %T", params[0])
		}
	} else {
		for i, column := range statement.Columns {
			record[column] = params[i]
		}
	}

	document := target.Document()
	name := engine.tableName(statement.Table)
	document.EnsureTable(name)

	if record.ID() == "" {
		if engine.MonotonicIDs {
			record["id"] = core.NextMonotonicID(document.Table(name))
		} else {
			record["id"] = core.NewID()
		}
	}
	core.StampCreated(record)

	table := document.Table(name)
	document.Tables[name] = append(table, record)

	if err := target.Persist(); err != nil {
		// Undo the in-memory insert so memory and disk never diverge.
		document.Tables[name] = document.Tables[name][:len(table)]
		return nil, err
	}

	return CommitResult{NewID: record.ID(), Affected: 1, Changed: 1}, nil
}

func (engine *Engine) executeUpdate(target Target, statement sql.UpdateStatement, params []any) (Result, error) {
	// SET and WHERE split the bound parameters: the SET clause owns the
	// first SetParams of them, the WHERE clause the rest. Miscounting
	// here corrupts records, so both sides are validated explicitly.
	if len(params) != statement.SetParams+statement.Where.Params {
		return nil, fmt.Errorf("%w: statement has %d placeholders, %d parameters bound",
			ErrParamCount, statement.SetParams+statement.Where.Params, len(params))
	}
	setParams := params[:statement.SetParams]
	whereParams := params[statement.SetParams:]

	document := target.Document()
	name := engine.tableName(statement.Table)
	table := document.Table(name)

	stampsUpdated := false
	for _, assignment := range statement.Assignments {
		if assignment.Column == "updated_at" {
			stampsUpdated = true
		}
	}

	type undo struct {
		record   core.Record
		previous core.Record
	}
	var undos []undo

	affected := 0
	changed := 0
	for _, record := range table {
		if !statement.Where.Empty() && !MatchRecord(record, statement.Where, whereParams) {
			continue
		}
		affected++
		undos = append(undos, undo{record: record, previous: record.Clone()})

		recordChanged := false
		for _, assignment := range statement.Assignments {
			var value any
			switch assignment.Kind {
			case sql.SetParam:
				value = setParams[assignment.Param]
			case sql.SetBool:
				value = assignment.Bool
			case sql.SetNow:
				value = core.Timestamp()
			}
			if !reflect.DeepEqual(record[assignment.Column], value) {
				recordChanged = true
			}
			record[assignment.Column] = value
		}
		if recordChanged {
			changed++
		}
		if !stampsUpdated {
			core.StampUpdated(record)
		}
	}

	if affected == 0 {
		return CommitResult{}, nil
	}

	if err := target.Persist(); err != nil {
		// Roll the merged fields back to their pre-update values.
		for _, u := range undos {
			for field := range u.record {
				delete(u.record, field)
			}
			for field, value := range u.previous {
				u.record[field] = value
			}
		}
		return nil, err
	}

	return CommitResult{Affected: affected, Changed: changed}, nil
}

func (engine *Engine) executeDelete(target Target, statement sql.DeleteStatement, params []any) (Result, error) {
	if statement.Where.Empty() {
		return nil, ErrDeleteRequiresWhere
	}
	if statement.Where.Params != len(params) {
		return nil, fmt.Errorf("%w: clause has %d placeholders, %d parameters bound",
			ErrParamCount, statement.Where.Params, len(params))
	}

	document := target.Document()
	name := engine.tableName(statement.Table)
	table := document.Table(name)

	kept := make([]core.Record, 0, len(table))
	removed := 0
	for _, record := range table {
		if MatchRecord(record, statement.Where, params) {
			removed++
			continue
		}
		kept = append(kept, record)
	}

	if removed == 0 {
		return CommitResult{}, nil
	}

	document.Tables[name] = kept
	if err := target.Persist(); err != nil {
		// Restore the removed records in their original positions.
		document.Tables[name] = table
		return nil, err
	}

	return CommitResult{Affected: removed, Changed: removed}, nil
}

func (engine *Engine) executeCreateTable(target Target, statement sql.CreateTableStatement) (Result, error) {
	document := target.Document()
	name := engine.tableName(statement.Table)

	if _, exists := document.Tables[name]; exists {
		return CommitResult{}, nil
	}

	document.EnsureTable(name)
	if err := target.Persist(); err != nil {
		delete(document.Tables, name)
		return nil, err
	}

	return CommitResult{}, nil
}

// splitFieldRef splits an optional table-alias prefix off a field
// reference: "b.user_id" -> ("b", "user_id"), "status" -> ("", "status").
func splitFieldRef(ref string) (prefix, field string) {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}
