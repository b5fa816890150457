package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/evmatch/internal/ir"
)

// TraceSnapshot captures the match trace of one scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []MatchTrace `json:"trace"`
}

// toIR converts the snapshot to an IR object for canonical serialization.
func (s *TraceSnapshot) toIR() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, m := range s.Trace {
		subs := make(ir.IRArray, len(m.Subscriptions))
		for j, id := range m.Subscriptions {
			subs[j] = ir.IRString(id)
		}
		trace[i] = ir.IRObject{
			"event":         ir.IRString(m.Event),
			"dispatch_id":   ir.IRString(m.DispatchID),
			"scope_type":    ir.IRString(m.ScopeType),
			"subscriptions": subs,
			"specificity":   ir.IRInt(m.Specificity),
		}
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toIR())
}

// RunWithGolden executes a scenario and compares its match trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{ScenarioName: scenario.Name, Trace: result.Trace}
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
