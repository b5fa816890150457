package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/evmatch/internal/config"
	"github.com/roach88/evmatch/internal/engine"
	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/store"
)

// testConfig mirrors the environment defaults.
func testConfig() config.Config {
	return config.Config{
		Database:  "evmatch.db",
		ModelsDir: "testdata/models",
		LogLevel:  "error",
		Scopes:    []string{engine.ScopeTypeProcess, engine.ScopeTypeCase},
	}
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand(cfg)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

type subFixture struct {
	ID          string
	EventType   string
	ScopeType   string
	Correlation ir.IRObject // nil stores a NULL configuration
}

// subscriptionDB creates a database holding subs.
func subscriptionDB(t *testing.T, subs ...subFixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	for _, s := range subs {
		sub := ir.EventSubscription{ID: s.ID, EventType: s.EventType, ScopeType: s.ScopeType}
		if s.Correlation != nil {
			key, err := engine.CanonicalEncoder{}.Encode(s.Correlation)
			require.NoError(t, err)
			sub.Configuration = &key
		}
		require.NoError(t, st.WriteSubscription(context.Background(), sub))
	}
	return path
}

// orderSubscriptions is a small bpmn/cmmn fixture set for orderPlaced.
func orderSubscriptions() []subFixture {
	return []subFixture{
		{ID: "p-any", EventType: "orderPlaced", ScopeType: "bpmn"},
		{ID: "p-order", EventType: "orderPlaced", ScopeType: "bpmn", Correlation: ir.IRObject{"orderId": ir.IRString("42")}},
		{ID: "p-other", EventType: "orderPlaced", ScopeType: "bpmn", Correlation: ir.IRObject{"orderId": ir.IRString("43")}},
		{ID: "c-both", EventType: "orderPlaced", ScopeType: "cmmn", Correlation: ir.IRObject{
			"orderId": ir.IRString("42"),
			"region":  ir.IRString("EU"),
		}},
	}
}
