package db

import (
	"fmt"
	"os"
	"sort"

	"github.com/nickyhof/DocDB/core"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Display()
}

// QueryResult is the shape of every read: flat field-mapping rows.
// Total carries the pre-pagination match count.
type QueryResult struct {
	Rows  []core.Record
	Total int
}

// CommitResult is the shape of every mutation: the new record id (if
// any), the number of matched records, and the number whose values
// actually differed afterwards.
type CommitResult struct {
	NewID    string
	Affected int
	Changed  int
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

// Columns returns the sorted union of field names across all rows, with
// id first and the timestamps last.
func (result QueryResult) Columns() []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range result.Rows {
		for field := range row {
			if !seen[field] {
				seen[field] = true
				columns = append(columns, field)
			}
		}
	}
	sort.Slice(columns, func(i, j int) bool {
		return columnRank(columns[i]) < columnRank(columns[j]) ||
			(columnRank(columns[i]) == columnRank(columns[j]) && columns[i] < columns[j])
	})
	return columns
}

func columnRank(field string) int {
	switch field {
	case "id":
		return 0
	case "created_at", "updated_at":
		return 2
	default:
		return 1
	}
}

func (result QueryResult) Display() {
	if len(result.Rows) > 0 {
		columns := result.Columns()
		table := NewTable(os.Stdout)
		table.Header(columns)
		for _, row := range result.Rows {
			cells := make([]string, len(columns))
			for i, column := range columns {
				cells[i] = core.FieldString(row[column])
			}
			table.Row(cells)
		}
		table.Render()
	}
	fmt.Printf("%d row(s)\n", len(result.Rows))
}

func (result CommitResult) Display() {
	if result.NewID != "" {
		fmt.Printf("OK, id %s (%d affected, %d changed)\n", result.NewID, result.Affected, result.Changed)
		return
	}
	fmt.Printf("OK (%d affected, %d changed)\n", result.Affected, result.Changed)
}
