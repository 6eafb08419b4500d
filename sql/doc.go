// Package sql provides the statement language for DocDB.
//
// The package contains a hand-written lexer and a recursive-descent
// parser producing explicit statement trees. The supported language is a
// deliberately constrained subset:
//
//   - SELECT cols|*|COUNT(*) FROM table [narrow JOINs] [WHERE] [ORDER BY] [LIMIT] [OFFSET]
//   - INSERT INTO table (cols) VALUES (?, ...), or INSERT INTO table VALUES (?)
//     with a single structured parameter holding the whole record
//   - UPDATE table SET col = ?|true|false|NOW() [, ...] WHERE ...
//   - DELETE FROM table WHERE ...
//   - CREATE TABLE table [(...)], with any schema body accepted and ignored
//
// WHERE clauses are OR-separated groups of AND-separated atomic
// conditions. An atomic condition is one of:
//
//	field = ?          equality against a bound parameter
//	field = true|false boolean literal equality
//	field > NOW()      wall-clock comparison (expiry checks)
//	field < NOW()
//
// Field names may carry an alias prefix (alias.field).
//
// Everything outside this set (LIKE, IN, BETWEEN, IS NULL, inequality
// against literals, GROUP BY/HAVING, subqueries, string functions)
// fails at parse time with ErrUnsupported. Refusing a query is always
// preferable to silently returning wrong rows, so there is no default
// path anywhere in the parser.
package sql
