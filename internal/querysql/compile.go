package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: Every query ends with a stable ORDER BY so results are
// deterministic across runs and SQLite versions.
// CRITICAL: Values are parameterized, never interpolated. Names are
// interpolated only after queryir.Validate has accepted them.
type SQLCompiler struct {
	// OrderBy is the column used for the stable ordering. Defaults to "id".
	OrderBy string
}

// NewSQLCompiler creates a new SQLCompiler ordering by id.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{OrderBy: "id"}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		whereClause,
		c.stableOrderKey())

	return sql, params, nil
}

// stableOrderKey returns the ORDER BY expression.
// COLLATE BINARY keeps text ordering identical across SQLite builds. SQLite
// only accepts the collation before the sort direction.
func (c *SQLCompiler) stableOrderKey() string {
	col := c.OrderBy
	if col == "" {
		col = "id"
	}
	return col + " COLLATE BINARY ASC"
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		param, err := irValueToParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return pred.Field + " = ?", []any{param}, nil
	case queryir.IsNull:
		return pred.Field + " IS NULL", nil, nil
	case queryir.In:
		return c.compileIn(pred)
	case queryir.And:
		return c.compileAnd(pred)
	case queryir.Or:
		return c.compileOr(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}

	placeholders := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := irValueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s[%d]: %w", in.Field, i, err)
		}
		placeholders[i] = "?"
		params[i] = param
	}

	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(placeholders, ", ")), params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	return strings.Join(parts, " AND "), params, nil
}

// compileOr always parenthesizes so it composes safely inside AND.
func (c *SQLCompiler) compileOr(or queryir.Or) (string, []any, error) {
	if len(or.Predicates) == 0 {
		return "1 = 0", nil, nil
	}

	parts := make([]string, 0, len(or.Predicates))
	var params []any
	for _, pred := range or.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if and, ok := pred.(queryir.And); ok && len(and.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	return "(" + strings.Join(parts, " OR ") + ")", params, nil
}

// irValueToParam converts a scalar IR value to a database/sql parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported IR value for SQL parameter: %T", v)
	}
}
