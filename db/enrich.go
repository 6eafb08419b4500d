package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nickyhof/DocDB/core"
	"github.com/nickyhof/DocDB/sql"
)

// enrichRows attaches joined-table data to an already filtered and
// paginated result page. Joins here are not relational joins: they
// never change which rows come back, only which fields ride along.
//
// The join's ON clause decides the direction. When the joined side
// binds its id column, each row gets scalar fields looked up from the
// single matching record. When the base side binds its id column, the
// join fans out and each row gets the matching values aggregated into
// one sorted comma-separated string.
//
// Every enriched row also carries total_count, the match count before
// pagination, so callers can page without a second COUNT query.
func enrichRows(document *core.Document, engine *Engine, statement sql.SelectStatement, base, rows []core.Record, total int) error {
	for _, join := range statement.Joins {
		baseField, joinField, err := joinDirection(statement, join)
		if err != nil {
			return err
		}

		attach := attachColumns(statement, join)
		if len(attach) == 0 {
			continue
		}

		joinedTable := document.Table(engine.tableName(join.Table))

		if joinField == "id" {
			// Scalar direction: base.fk -> joined.id, at most one match.
			index := make(map[string]core.Record, len(joinedTable))
			for _, record := range joinedTable {
				index[record.ID()] = record
			}
			for i, record := range base {
				match, ok := index[core.FieldString(record[baseField])]
				for _, column := range attach {
					if ok {
						rows[i][column.output] = match[column.field]
					} else {
						rows[i][column.output] = nil
					}
				}
			}
		} else if baseField == "id" {
			// Aggregate direction: joined.fk -> base.id, many matches.
			grouped := make(map[string][]string)
			for _, record := range joinedTable {
				key := core.FieldString(record[joinField])
				for _, column := range attach {
					grouped[key+"\x00"+column.field] =
						append(grouped[key+"\x00"+column.field], core.FieldString(record[column.field]))
				}
			}
			for i, record := range base {
				id := record.ID()
				for _, column := range attach {
					values := grouped[id+"\x00"+column.field]
					sort.Strings(values)
					rows[i][column.output] = strings.Join(values, ",")
				}
			}
		} else {
			return fmt.Errorf("%w: join must bind an id column on one side", sql.ErrUnsupported)
		}
	}

	for _, row := range rows {
		row["total_count"] = total
	}
	return nil
}

// joinDirection resolves which side of the ON clause belongs to the
// base table and which to the joined table, returning the bare field
// name of each.
func joinDirection(statement sql.SelectStatement, join sql.JoinClause) (baseField, joinField string, err error) {
	leftPrefix, leftField := splitFieldRef(join.LeftCol)
	rightPrefix, rightField := splitFieldRef(join.RightCol)

	joinedSide := func(prefix string) bool {
		return prefix == join.Alias || prefix == join.Table
	}
	baseSide := func(prefix string) bool {
		return prefix == statement.TableAlias || prefix == statement.Table || prefix == ""
	}

	switch {
	case joinedSide(leftPrefix) && baseSide(rightPrefix):
		return rightField, leftField, nil
	case joinedSide(rightPrefix) && baseSide(leftPrefix):
		return leftField, rightField, nil
	default:
		return "", "", fmt.Errorf("%w: ON clause must relate the base table to the joined table", sql.ErrUnsupported)
	}
}

type attachColumn struct {
	field  string
	output string
}

// attachColumns picks the projected columns whose alias prefix names
// this join. Those are the fields enrichment fills in.
func attachColumns(statement sql.SelectStatement, join sql.JoinClause) []attachColumn {
	var columns []attachColumn
	for _, column := range statement.Columns {
		prefix, field := splitFieldRef(column.Expr)
		if prefix != join.Alias && prefix != join.Table {
			continue
		}
		output := column.Alias
		if output == "" {
			output = field
		}
		columns = append(columns, attachColumn{field: field, output: output})
	}
	return columns
}
