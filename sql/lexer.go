package sql

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	Placeholder
	Wildcard
	String
	Int
	Float
	Comma
	ParenOpen
	ParenClose
	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Not
	Is
	Null
	Like
	In
	Between
	True
	False
	Now
	Select
	From
	Where
	Limit
	Offset
	Order
	By
	Asc
	Desc
	Count
	Distinct
	Group
	Having
	Union
	Create
	Table
	If
	Exists
	Insert
	Into
	Values
	Update
	Delete
	Set
	Join
	Inner
	Left
	Right
	Outer
	On
	As
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case Placeholder:
		return "Placeholder"
	case Wildcard:
		return "Wildcard"
	case String:
		return "String(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Float:
		return "Float(" + token.Value + ")"
	case Comma:
		return "Comma"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Equals:
		return "Equals"
	case NotEquals:
		return "NotEquals"
	case LessThan:
		return "LessThan"
	case GreaterThan:
		return "GreaterThan"
	case LessThanOrEqual:
		return "LessThanOrEqual"
	case GreaterThanOrEqual:
		return "GreaterThanOrEqual"
	case And:
		return "And"
	case Or:
		return "Or"
	case Not:
		return "Not"
	case Is:
		return "Is"
	case Null:
		return "Null"
	case Like:
		return "Like"
	case In:
		return "In"
	case Between:
		return "Between"
	case True:
		return "True"
	case False:
		return "False"
	case Now:
		return "Now"
	case Select:
		return "Select"
	case From:
		return "From"
	case Where:
		return "Where"
	case Limit:
		return "Limit"
	case Offset:
		return "Offset"
	case Order:
		return "Order"
	case By:
		return "By"
	case Asc:
		return "Asc"
	case Desc:
		return "Desc"
	case Count:
		return "Count"
	case Distinct:
		return "Distinct"
	case Group:
		return "Group"
	case Having:
		return "Having"
	case Union:
		return "Union"
	case Create:
		return "Create"
	case Table:
		return "Table"
	case If:
		return "If"
	case Exists:
		return "Exists"
	case Insert:
		return "Insert"
	case Into:
		return "Into"
	case Values:
		return "Values"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	case Set:
		return "Set"
	case Join:
		return "Join"
	case Inner:
		return "Inner"
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Outer:
		return "Outer"
	case On:
		return "On"
	case As:
		return "As"
	case EOF:
		return "EOF"
	default:
		return "Unknown(" + token.Value + ")"
	}
}

type Lexer struct {
	statement    string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(statement string) *Lexer {
	lexer := &Lexer{statement: statement}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.statement) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.statement[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch)}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch)}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch)}
	case '?':
		token = Token{Type: Placeholder, Value: string(lexer.ch)}
	case '*':
		token = Token{Type: Wildcard, Value: string(lexer.ch)}
	case ';':
		token = Token{Type: EOF, Value: ""}
	case 0:
		token = Token{Type: EOF, Value: ""}
	case '\'':
		token = Token{Type: String, Value: lexer.readString()}
	default:
		if isOperator(lexer.ch) {
			operator := lexer.readOperator()
			switch operator {
			case "=":
				return Token{Type: Equals, Value: operator}
			case "!=", "<>":
				return Token{Type: NotEquals, Value: operator}
			case "<":
				return Token{Type: LessThan, Value: operator}
			case ">":
				return Token{Type: GreaterThan, Value: operator}
			case "<=":
				return Token{Type: LessThanOrEqual, Value: operator}
			case ">=":
				return Token{Type: GreaterThanOrEqual, Value: operator}
			default:
				return Token{Type: Unknown, Value: operator}
			}
		} else if isDigit(lexer.ch) {
			num := lexer.readNumber()
			if lexer.ch == '.' {
				lexer.readChar()
				decimal := lexer.readNumber()
				return Token{Type: Float, Value: num + "." + decimal}
			}
			return Token{Type: Int, Value: num}
		} else if isIdentifierStart(lexer.ch) {
			literal := lexer.readIdentifier()
			return Token{Type: lookupIdentifier(literal), Value: literal}
		} else {
			token = Token{Type: Unknown, Value: string(lexer.ch)}
		}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

func (lexer *Lexer) readString() string {
	start := lexer.position + 1
	for {
		lexer.readChar()
		if lexer.ch == '\'' || lexer.ch == 0 {
			break
		}
	}
	return lexer.statement[start:lexer.position]
}

func (lexer *Lexer) readNumber() string {
	start := lexer.position
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
	return lexer.statement[start:lexer.position]
}

func (lexer *Lexer) readOperator() string {
	start := lexer.position
	for isOperator(lexer.ch) {
		lexer.readChar()
	}
	return lexer.statement[start:lexer.position]
}

// Identifiers may carry an alias prefix (alias.field), so '.' is part
// of the identifier character set.
func (lexer *Lexer) readIdentifier() string {
	start := lexer.position
	for isIdentifierStart(lexer.ch) || isDigit(lexer.ch) || lexer.ch == '.' {
		lexer.readChar()
	}
	return lexer.statement[start:lexer.position]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isOperator(ch byte) bool {
	return ch == '=' || ch == '<' || ch == '>' || ch == '!'
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

var keywords = map[string]TokenType{
	"AND":      And,
	"OR":       Or,
	"NOT":      Not,
	"IS":       Is,
	"NULL":     Null,
	"LIKE":     Like,
	"IN":       In,
	"BETWEEN":  Between,
	"TRUE":     True,
	"FALSE":    False,
	"NOW":      Now,
	"SELECT":   Select,
	"FROM":     From,
	"WHERE":    Where,
	"LIMIT":    Limit,
	"OFFSET":   Offset,
	"ORDER":    Order,
	"BY":       By,
	"ASC":      Asc,
	"DESC":     Desc,
	"COUNT":    Count,
	"DISTINCT": Distinct,
	"GROUP":    Group,
	"HAVING":   Having,
	"UNION":    Union,
	"CREATE":   Create,
	"TABLE":    Table,
	"IF":       If,
	"EXISTS":   Exists,
	"INSERT":   Insert,
	"INTO":     Into,
	"VALUES":   Values,
	"UPDATE":   Update,
	"DELETE":   Delete,
	"SET":      Set,
	"JOIN":     Join,
	"INNER":    Inner,
	"LEFT":     Left,
	"RIGHT":    Right,
	"OUTER":    Outer,
	"ON":       On,
	"AS":       As,
}

func lookupIdentifier(literal string) TokenType {
	if tokenType, ok := keywords[normalizeKeyword(literal)]; ok {
		return tokenType
	}
	return Identifier
}

// normalizeKeyword upper-cases ASCII letters without allocating through
// strings.ToUpper for the common already-uppercase case.
func normalizeKeyword(literal string) string {
	for i := 0; i < len(literal); i++ {
		if literal[i] >= 'a' && literal[i] <= 'z' {
			upper := make([]byte, len(literal))
			for j := 0; j < len(literal); j++ {
				ch := literal[j]
				if ch >= 'a' && ch <= 'z' {
					ch -= 'a' - 'A'
				}
				upper[j] = ch
			}
			return string(upper)
		}
	}
	return literal
}
