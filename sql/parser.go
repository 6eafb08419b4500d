package sql

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupported marks a construct outside the supported predicate and
// statement subset. Queries carrying one are refused outright: silently
// returning wrong rows would be worse than failing the query.
var ErrUnsupported = errors.New("unsupported construct")

// ErrUnsupportedOperation marks a statement kind the engine does not
// implement. There is no default/no-op path.
var ErrUnsupportedOperation = errors.New("unsupported operation")

type StatementType int

const (
	SelectStatementType StatementType = iota
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
	CreateTableStatementType
)

type Statement interface {
	Type() StatementType
}

// SelectColumn is one entry of a SELECT projection list. Alias carries
// the output name given with AS; Expr may carry a table alias prefix.
type SelectColumn struct {
	Expr  string
	Alias string
}

// Output returns the field name the column produces in result rows.
func (column SelectColumn) Output() string {
	if column.Alias != "" {
		return column.Alias
	}
	return column.Expr
}

// JoinClause is a narrow join used only for result enrichment: exactly
// `LEFT JOIN table [alias] ON left = right` where one side is an id
// column. It is a structural marker, not a general join.
type JoinClause struct {
	Table    string
	Alias    string
	LeftCol  string
	RightCol string
}

type OrderByClause struct {
	Field      string
	Descending bool
}

type SelectStatement struct {
	Table      string
	TableAlias string
	Star       bool
	CountAll   bool
	Columns    []SelectColumn
	Joins      []JoinClause
	Where      WhereClause
	OrderBy    []OrderByClause
	Limit      int
	Offset     int
}

type InsertStatement struct {
	Table   string
	Columns []string
	// Placeholders is the number of ? markers in the VALUES list.
	Placeholders int
	// WholeRecord marks the single-? shorthand: the one bound parameter
	// is a structured value holding the entire record.
	WholeRecord bool
}

type SetKind int

const (
	SetParam SetKind = iota
	SetBool
	SetNow
)

type SetClause struct {
	Column string
	Kind   SetKind
	Bool   bool
	// Param is the ordinal of this assignment's ? marker within the SET
	// clause, or -1 for literal assignments.
	Param int
}

type UpdateStatement struct {
	Table       string
	Assignments []SetClause
	// SetParams is the number of ? markers in the SET clause. The
	// executor splits the bound parameter slice at this point; the
	// remainder belongs to the WHERE clause.
	SetParams int
	Where     WhereClause
}

type DeleteStatement struct {
	Table string
	Where WhereClause
}

type CreateTableStatement struct {
	Table string
}

func (s SelectStatement) Type() StatementType      { return SelectStatementType }
func (s InsertStatement) Type() StatementType      { return InsertStatementType }
func (s UpdateStatement) Type() StatementType      { return UpdateStatementType }
func (s DeleteStatement) Type() StatementType      { return DeleteStatementType }
func (s CreateTableStatement) Type() StatementType { return CreateTableStatementType }

type CondOp int

const (
	// CondEqParam compares the field against a bound parameter.
	CondEqParam CondOp = iota
	// CondEqBool compares the field against a true/false literal.
	CondEqBool
	// CondGtNow matches fields holding a timestamp after the current
	// wall clock; a missing field never expires and matches.
	CondGtNow
	// CondLtNow matches fields holding a timestamp before the current
	// wall clock; a missing field counts as already expired and matches.
	CondLtNow
)

type Condition struct {
	Field string
	Op    CondOp
	Bool  bool
	// Param is the position of this condition's ? marker within the
	// WHERE clause parameters, or -1 for literal conditions.
	Param int
}

// WhereClause is a disjunction of conjunctions: a record matches when
// any group has all its conditions true. Params counts the ? markers.
type WhereClause struct {
	Groups [][]Condition
	Params int
}

func (clause WhereClause) Empty() bool {
	return len(clause.Groups) == 0
}

type Parser struct {
	lexer *Lexer
}

func NewParser(statement string) *Parser {
	return &Parser{lexer: NewLexer(statement)}
}

func (parser *Parser) Parse() (Statement, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case Select:
		return ParseSelect(parser)
	case Insert:
		return ParseInsert(parser)
	case Update:
		return ParseUpdate(parser)
	case Delete:
		return ParseDelete(parser)
	case Create:
		return ParseCreate(parser)
	case EOF:
		return nil, errors.New("empty statement")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, token.Value)
	}
}

func ParseSelect(parser *Parser) (Statement, error) {
	var statement SelectStatement

	token := parser.lexer.NextToken()

	switch token.Type {
	case Distinct:
		return nil, fmt.Errorf("%w: DISTINCT", ErrUnsupported)
	case Count:
		token = parser.lexer.NextToken()
		if token.Type != ParenOpen {
			return nil, errors.New("expected '(' after COUNT")
		}
		token = parser.lexer.NextToken()
		if token.Type != Wildcard {
			return nil, fmt.Errorf("%w: COUNT over a column", ErrUnsupported)
		}
		token = parser.lexer.NextToken()
		if token.Type != ParenClose {
			return nil, errors.New("expected ')' after COUNT(*")
		}
		statement.CountAll = true
		token = parser.lexer.NextToken()
	default:
		var err error
		token, err = parseSelectList(parser, token, &statement)
		if err != nil {
			return nil, err
		}
	}

	if token.Type != From {
		return nil, errors.New("expected FROM")
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return nil, errors.New("expected table name after FROM")
	}
	statement.Table = token.Value

	token = parser.lexer.NextToken()

	// Table alias, with or without AS.
	if token.Type == As {
		token = parser.lexer.NextToken()
		if token.Type != Identifier {
			return nil, errors.New("expected alias after AS")
		}
		statement.TableAlias = token.Value
		token = parser.lexer.NextToken()
	} else if token.Type == Identifier {
		statement.TableAlias = token.Value
		token = parser.lexer.NextToken()
	}

	for token.Type == Join || token.Type == Inner || token.Type == Left {
		join, next, err := parseJoin(parser, token)
		if err != nil {
			return nil, err
		}
		statement.Joins = append(statement.Joins, join)
		token = next
	}
	if token.Type == Right {
		return nil, fmt.Errorf("%w: RIGHT JOIN", ErrUnsupported)
	}

	if token.Type == Where {
		clause, next, err := parseWhere(parser)
		if err != nil {
			return nil, err
		}
		statement.Where = clause
		token = next
	}

	if token.Type == Group {
		return nil, fmt.Errorf("%w: GROUP BY", ErrUnsupported)
	}

	if token.Type == Order {
		token = parser.lexer.NextToken()
		if token.Type != By {
			return nil, errors.New("expected BY after ORDER")
		}
		for {
			token = parser.lexer.NextToken()
			if token.Type != Identifier {
				return nil, errors.New("expected field name in ORDER BY")
			}
			clause := OrderByClause{Field: token.Value}
			token = parser.lexer.NextToken()
			if token.Type == Desc {
				clause.Descending = true
				token = parser.lexer.NextToken()
			} else if token.Type == Asc {
				token = parser.lexer.NextToken()
			}
			statement.OrderBy = append(statement.OrderBy, clause)
			if token.Type != Comma {
				break
			}
		}
	}

	if token.Type == Limit {
		token = parser.lexer.NextToken()
		if token.Type != Int {
			return nil, errors.New("expected integer after LIMIT")
		}
		statement.Limit, _ = strconv.Atoi(token.Value)
		token = parser.lexer.NextToken()
	}

	if token.Type == Offset {
		token = parser.lexer.NextToken()
		if token.Type != Int {
			return nil, errors.New("expected integer after OFFSET")
		}
		statement.Offset, _ = strconv.Atoi(token.Value)
		token = parser.lexer.NextToken()
	}

	if token.Type == Union || token.Type == Having {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, token.Value)
	}
	if token.Type != EOF {
		return nil, fmt.Errorf("unexpected token %s", token)
	}

	return statement, nil
}

// parseSelectList consumes the projection list up to FROM. The entry
// `alias.*` (or bare `*`) selects whole records.
func parseSelectList(parser *Parser, token Token, statement *SelectStatement) (Token, error) {
	for {
		switch token.Type {
		case Wildcard:
			statement.Star = true
		case Identifier:
			// `b.` followed by `*` is an aliased wildcard.
			if token.Value[len(token.Value)-1] == '.' && parser.lexer.PeekToken().Type == Wildcard {
				parser.lexer.NextToken()
				statement.Star = true
				break
			}
			column := SelectColumn{Expr: token.Value}
			if parser.lexer.PeekToken().Type == As {
				parser.lexer.NextToken()
				alias := parser.lexer.NextToken()
				if alias.Type != Identifier {
					return token, errors.New("expected alias after AS")
				}
				column.Alias = alias.Value
			}
			statement.Columns = append(statement.Columns, column)
		case Count:
			return token, fmt.Errorf("%w: COUNT mixed into a projection list", ErrUnsupported)
		default:
			return token, errors.New("expected column name or * in SELECT")
		}

		token = parser.lexer.NextToken()
		if token.Type != Comma {
			return token, nil
		}
		token = parser.lexer.NextToken()
	}
}

func parseJoin(parser *Parser, token Token) (JoinClause, Token, error) {
	var join JoinClause

	switch token.Type {
	case Left:
		token = parser.lexer.NextToken()
		if token.Type == Outer {
			token = parser.lexer.NextToken()
		}
		if token.Type != Join {
			return join, token, errors.New("expected JOIN after LEFT")
		}
	case Inner:
		token = parser.lexer.NextToken()
		if token.Type != Join {
			return join, token, errors.New("expected JOIN after INNER")
		}
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return join, token, errors.New("expected table name after JOIN")
	}
	join.Table = token.Value

	token = parser.lexer.NextToken()
	if token.Type == As {
		token = parser.lexer.NextToken()
	}
	if token.Type == Identifier {
		join.Alias = token.Value
		token = parser.lexer.NextToken()
	}

	if token.Type != On {
		return join, token, errors.New("expected ON after JOIN table")
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return join, token, errors.New("expected column after ON")
	}
	join.LeftCol = token.Value

	token = parser.lexer.NextToken()
	if token.Type != Equals {
		return join, token, fmt.Errorf("%w: non-equality join condition", ErrUnsupported)
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return join, token, errors.New("expected column after '=' in ON")
	}
	join.RightCol = token.Value

	return join, parser.lexer.NextToken(), nil
}

// parseWhere consumes the predicate after WHERE and returns the first
// token past it. The grammar is OR-separated groups of AND-separated
// atomic conditions; anything outside the supported atomic forms is
// rejected here, before any row is touched.
func parseWhere(parser *Parser) (WhereClause, Token, error) {
	var clause WhereClause
	var group []Condition

	for {
		condition, err := parseCondition(parser, &clause)
		if err != nil {
			return clause, Token{}, err
		}
		group = append(group, condition)

		token := parser.lexer.NextToken()
		switch token.Type {
		case And:
			continue
		case Or:
			clause.Groups = append(clause.Groups, group)
			group = nil
			continue
		default:
			clause.Groups = append(clause.Groups, group)
			return clause, token, nil
		}
	}
}

func parseCondition(parser *Parser, clause *WhereClause) (Condition, error) {
	condition := Condition{Param: -1}

	token := parser.lexer.NextToken()
	switch token.Type {
	case Identifier:
		condition.Field = token.Value
	case ParenOpen:
		return condition, fmt.Errorf("%w: nested predicate groups", ErrUnsupported)
	case Not:
		return condition, fmt.Errorf("%w: NOT", ErrUnsupported)
	default:
		return condition, errors.New("expected field name in WHERE")
	}

	token = parser.lexer.NextToken()
	switch token.Type {
	case Equals:
		token = parser.lexer.NextToken()
		switch token.Type {
		case Placeholder:
			condition.Op = CondEqParam
			condition.Param = clause.Params
			clause.Params++
		case True:
			condition.Op = CondEqBool
			condition.Bool = true
		case False:
			condition.Op = CondEqBool
			condition.Bool = false
		case Null:
			return condition, fmt.Errorf("%w: null comparison", ErrUnsupported)
		case String, Int, Float:
			return condition, fmt.Errorf("%w: literal equality must bind a parameter", ErrUnsupported)
		default:
			return condition, errors.New("expected ?, TRUE or FALSE after '='")
		}
	case GreaterThan, LessThan:
		op := CondGtNow
		if token.Type == LessThan {
			op = CondLtNow
		}
		token = parser.lexer.NextToken()
		if token.Type != Now {
			return condition, fmt.Errorf("%w: range comparison against a value", ErrUnsupported)
		}
		if parser.lexer.NextToken().Type != ParenOpen || parser.lexer.NextToken().Type != ParenClose {
			return condition, errors.New("expected () after NOW")
		}
		condition.Op = op
	case Like:
		return condition, fmt.Errorf("%w: LIKE", ErrUnsupported)
	case In:
		return condition, fmt.Errorf("%w: IN", ErrUnsupported)
	case Between:
		return condition, fmt.Errorf("%w: BETWEEN", ErrUnsupported)
	case Is:
		return condition, fmt.Errorf("%w: IS NULL", ErrUnsupported)
	case NotEquals, LessThanOrEqual, GreaterThanOrEqual:
		return condition, fmt.Errorf("%w: %s", ErrUnsupported, token.Value)
	default:
		return condition, errors.New("expected comparison operator in WHERE")
	}

	return condition, nil
}

func ParseInsert(parser *Parser) (Statement, error) {
	var statement InsertStatement

	token := parser.lexer.NextToken()
	if token.Type != Into {
		return nil, errors.New("expected INTO after INSERT")
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return nil, errors.New("expected table name after INTO")
	}
	statement.Table = token.Value

	token = parser.lexer.NextToken()
	if token.Type == ParenOpen {
		for {
			token = parser.lexer.NextToken()
			if token.Type != Identifier {
				return nil, errors.New("expected column name in insert column list")
			}
			statement.Columns = append(statement.Columns, token.Value)
			token = parser.lexer.NextToken()
			if token.Type == ParenClose {
				break
			}
			if token.Type != Comma {
				return nil, errors.New("expected ',' or ')' in insert column list")
			}
		}
		token = parser.lexer.NextToken()
	}

	if token.Type != Values {
		return nil, errors.New("expected VALUES")
	}
	if parser.lexer.NextToken().Type != ParenOpen {
		return nil, errors.New("expected '(' after VALUES")
	}

	for {
		token = parser.lexer.NextToken()
		switch token.Type {
		case Placeholder:
			statement.Placeholders++
		case String, Int, Float, True, False, Null:
			return nil, fmt.Errorf("%w: literal values must bind parameters", ErrUnsupported)
		default:
			return nil, errors.New("expected ? in VALUES list")
		}
		token = parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, errors.New("expected ',' or ')' in VALUES list")
		}
	}

	if len(statement.Columns) == 0 {
		if statement.Placeholders != 1 {
			return nil, errors.New("whole-record insert takes exactly one parameter")
		}
		statement.WholeRecord = true
	} else if statement.Placeholders != len(statement.Columns) {
		return nil, fmt.Errorf("insert lists %d columns but %d values",
			len(statement.Columns), statement.Placeholders)
	}

	if token = parser.lexer.NextToken(); token.Type != EOF {
		return nil, fmt.Errorf("unexpected token %s", token)
	}

	return statement, nil
}

func ParseUpdate(parser *Parser) (Statement, error) {
	var statement UpdateStatement

	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return nil, errors.New("expected table name after UPDATE")
	}
	statement.Table = token.Value

	if parser.lexer.NextToken().Type != Set {
		return nil, errors.New("expected SET")
	}

	for {
		token = parser.lexer.NextToken()
		if token.Type != Identifier {
			return nil, errors.New("expected column name in SET")
		}
		assignment := SetClause{Column: token.Value, Param: -1}

		if parser.lexer.NextToken().Type != Equals {
			return nil, errors.New("expected '=' in SET")
		}

		token = parser.lexer.NextToken()
		switch token.Type {
		case Placeholder:
			assignment.Kind = SetParam
			assignment.Param = statement.SetParams
			statement.SetParams++
		case True:
			assignment.Kind = SetBool
			assignment.Bool = true
		case False:
			assignment.Kind = SetBool
		case Now:
			if parser.lexer.NextToken().Type != ParenOpen || parser.lexer.NextToken().Type != ParenClose {
				return nil, errors.New("expected () after NOW")
			}
			assignment.Kind = SetNow
		case String, Int, Float, Null:
			return nil, fmt.Errorf("%w: literal assignments must bind parameters", ErrUnsupported)
		default:
			return nil, errors.New("expected ?, TRUE, FALSE or NOW() in SET")
		}
		statement.Assignments = append(statement.Assignments, assignment)

		token = parser.lexer.NextToken()
		if token.Type != Comma {
			break
		}
	}

	if token.Type == Where {
		clause, next, err := parseWhere(parser)
		if err != nil {
			return nil, err
		}
		statement.Where = clause
		token = next
	}

	if token.Type != EOF {
		return nil, fmt.Errorf("unexpected token %s", token)
	}

	return statement, nil
}

func ParseDelete(parser *Parser) (Statement, error) {
	var statement DeleteStatement

	token := parser.lexer.NextToken()
	if token.Type != From {
		return nil, errors.New("expected FROM after DELETE")
	}

	token = parser.lexer.NextToken()
	if token.Type != Identifier {
		return nil, errors.New("expected table name after FROM")
	}
	statement.Table = token.Value

	token = parser.lexer.NextToken()
	if token.Type == Where {
		clause, next, err := parseWhere(parser)
		if err != nil {
			return nil, err
		}
		statement.Where = clause
		token = next
	}

	// The executor refuses an absent WHERE; the parser still accepts it
	// so the refusal is a deliberate safety error, not a syntax error.
	if token.Type != EOF {
		return nil, fmt.Errorf("unexpected token %s", token)
	}

	return statement, nil
}

func ParseCreate(parser *Parser) (Statement, error) {
	token := parser.lexer.NextToken()
	if token.Type != Table {
		return nil, fmt.Errorf("%w: CREATE %s", ErrUnsupportedOperation, token.Value)
	}

	token = parser.lexer.NextToken()
	if token.Type == If {
		if parser.lexer.NextToken().Type != Not || parser.lexer.NextToken().Type != Exists {
			return nil, errors.New("expected NOT EXISTS after IF")
		}
		token = parser.lexer.NextToken()
	}
	if token.Type != Identifier {
		return nil, errors.New("expected table name after CREATE TABLE")
	}
	statement := CreateTableStatement{Table: token.Value}

	// A schema body is accepted for driver compatibility but recorded
	// nowhere: the store is schemaless.
	token = parser.lexer.NextToken()
	if token.Type == ParenOpen {
		depth := 1
		for depth > 0 {
			token = parser.lexer.NextToken()
			switch token.Type {
			case ParenOpen:
				depth++
			case ParenClose:
				depth--
			case EOF:
				return nil, errors.New("unterminated column list in CREATE TABLE")
			}
		}
		token = parser.lexer.NextToken()
	}

	if token.Type != EOF {
		return nil, fmt.Errorf("unexpected token %s", token)
	}

	return statement, nil
}
