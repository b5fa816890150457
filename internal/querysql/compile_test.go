package querysql

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
)

var subscriptionColumns = []string{"id", "event_type", "scope_type", "tenant_id", "configuration"}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id", "event_type"},
		Filter:  queryir.Equals{Field: "event_type", Value: ir.IRString("orderPlaced")},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, event_type FROM event_subscriptions WHERE event_type = ? ORDER BY id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"orderPlaced"}, params)
}

func TestCompile_PointerSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := &queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM event_subscriptions ORDER BY id COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name   string
		filter queryir.Predicate
	}{
		{"no filter", nil},
		{"equals", queryir.Equals{Field: "scope_type", Value: ir.IRString("bpmn")}},
		{"is null", queryir.IsNull{Field: "configuration"}},
		{"or", queryir.Or{Predicates: []queryir.Predicate{queryir.IsNull{Field: "configuration"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := compiler.Compile(queryir.Select{
				From:    "event_subscriptions",
				Columns: []string{"id"},
				Filter:  tc.filter,
			})
			require.NoError(t, err)
			assert.Contains(t, sql, "ORDER BY id COLLATE BINARY ASC")
		})
	}
}

func TestCompile_CustomOrderBy(t *testing.T) {
	compiler := &SQLCompiler{OrderBy: "seq"}

	sql, _, err := compiler.Compile(queryir.Select{From: "event_subscriptions", Columns: []string{"id"}})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY seq COLLATE BINARY ASC")
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	compiler := NewSQLCompiler()
	dangerous := "'; DROP TABLE event_subscriptions; --"

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
		Filter: queryir.In{
			Field:  "configuration",
			Values: []ir.IRValue{ir.IRString(dangerous)},
		},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, dangerous)
	assert.Contains(t, sql, "configuration IN (?)")
	assert.Equal(t, []any{dangerous}, params)
}

func TestCompile_RejectsInvalidQuery(t *testing.T) {
	compiler := NewSQLCompiler()

	_, _, err := compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
		Filter:  queryir.Equals{Field: "tenant_id = '' OR 1", Value: ir.IRString("x")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid identifier")

	_, _, err = compiler.Compile(nil)
	require.Error(t, err)
}

func TestCompile_ParamTypes(t *testing.T) {
	compiler := NewSQLCompiler()

	_, params, err := compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "a", Value: ir.IRString("x")},
			queryir.Equals{Field: "b", Value: ir.IRInt(7)},
			queryir.Equals{Field: "c", Value: ir.IRBool(true)},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", int64(7), true}, params)
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
		Filter:  queryir.In{Field: "configuration"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 0")
	assert.Empty(t, params)
}

func TestCompile_AndInsideOrIsParenthesized(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "event_subscriptions",
		Columns: []string{"id"},
		Filter: queryir.Or{Predicates: []queryir.Predicate{
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "a", Value: ir.IRInt(1)},
				queryir.Equals{Field: "b", Value: ir.IRInt(2)},
			}},
			queryir.IsNull{Field: "c"},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE ((a = ? AND b = ?) OR c IS NULL)")
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}

// goldenSQL renders compiled SQL and its parameters for golden comparison.
func goldenSQL(t *testing.T, q queryir.Query) []byte {
	t.Helper()
	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	return []byte(fmt.Sprintf("%s\n%v\n", sql, params))
}

func TestCompile_GoldenCorrelationLookup(t *testing.T) {
	query := queryir.Select{
		From:    "event_subscriptions",
		Columns: subscriptionColumns,
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "event_type", Value: ir.IRString("orderPlaced")},
			queryir.Equals{Field: "scope_type", Value: ir.IRString("bpmn")},
			queryir.Or{Predicates: []queryir.Predicate{
				queryir.IsNull{Field: "configuration"},
				queryir.In{Field: "configuration", Values: []ir.IRValue{ir.IRString("k1"), ir.IRString("k2")}},
			}},
			queryir.Equals{Field: "tenant_id", Value: ir.IRString("tenantA")},
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "correlation_lookup", goldenSQL(t, query))
}

func TestCompile_GoldenUncorrelatedLookup(t *testing.T) {
	query := queryir.Select{
		From:    "event_subscriptions",
		Columns: subscriptionColumns,
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "event_type", Value: ir.IRString("orderPlaced")},
			queryir.Equals{Field: "scope_type", Value: ir.IRString("cmmn")},
			queryir.IsNull{Field: "configuration"},
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "uncorrelated_lookup", goldenSQL(t, query))
}
