package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a matching scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models is the directory of CUE event models.
	// Relative paths resolve against the scenario file location.
	Models string `yaml:"models"`

	// Scopes lists the scope types to register handlers for.
	// Defaults to bpmn and cmmn.
	Scopes []string `yaml:"scopes,omitempty"`

	// Subscriptions are written to the store before any event is dispatched.
	Subscriptions []SubscriptionFixture `yaml:"subscriptions"`

	// Events are dispatched in order.
	Events []EventStep `yaml:"events"`
}

// SubscriptionFixture is one stored subscription.
type SubscriptionFixture struct {
	ID        string `yaml:"id"`
	EventType string `yaml:"event_type"`
	ScopeType string `yaml:"scope_type"`
	ScopeID   string `yaml:"scope_id,omitempty"`
	TenantID  string `yaml:"tenant_id,omitempty"`

	// Correlation is encoded into the subscription's configuration.
	// Omitted or empty means the subscription matches every occurrence.
	Correlation map[string]interface{} `yaml:"correlation,omitempty"`
}

// EventStep dispatches one event occurrence.
type EventStep struct {
	// Name labels the step in traces. Defaults to "<event>#<index>".
	Name string `yaml:"name,omitempty"`

	// Event is the event model name (or key).
	Event string `yaml:"event"`

	// Tenant is the occurrence's own tenant.
	Tenant string `yaml:"tenant,omitempty"`

	// Payload holds the event fields correlation parameters are read from.
	Payload map[string]interface{} `yaml:"payload"`

	// Expect specifies the expected outcome. If nil, nothing is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected matches of one event.
type ExpectClause struct {
	// Matches maps scope type to matched subscription IDs.
	// Scopes not listed must not match anything.
	Matches map[string][]string `yaml:"matches"`

	// MostSpecific is the expected parameter count of the most specific
	// candidate key; 0 when the event carries no parameters.
	MostSpecific *int `yaml:"most_specific,omitempty"`
}

// label returns the step's trace label.
func (e EventStep) label(index int) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("%s#%d", e.Event, index+1)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "event:" vs "events:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the models path relative to the scenario BEFORE validation
	if scenario.Models != "" && !filepath.IsAbs(scenario.Models) {
		scenario.Models = filepath.Join(filepath.Dir(path), scenario.Models)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Models == "" {
		return fmt.Errorf("models directory is required")
	}
	if info, err := os.Stat(s.Models); err != nil || !info.IsDir() {
		return fmt.Errorf("models directory not found: %s", s.Models)
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Subscriptions))
	for i, sub := range s.Subscriptions {
		if sub.ID == "" {
			return fmt.Errorf("subscriptions[%d]: id is required", i)
		}
		if seen[sub.ID] {
			return fmt.Errorf("subscriptions[%d]: duplicate id %q", i, sub.ID)
		}
		seen[sub.ID] = true
		if sub.EventType == "" {
			return fmt.Errorf("subscriptions[%d]: event_type is required", i)
		}
		if sub.ScopeType == "" {
			return fmt.Errorf("subscriptions[%d]: scope_type is required", i)
		}
	}

	for i, ev := range s.Events {
		if ev.Event == "" {
			return fmt.Errorf("events[%d]: event is required", i)
		}
		if ev.Payload == nil {
			return fmt.Errorf("events[%d]: payload is required (use empty map if no fields)", i)
		}
		if ev.Expect != nil && ev.Expect.MostSpecific != nil && *ev.Expect.MostSpecific < 0 {
			return fmt.Errorf("events[%d].expect: most_specific must be non-negative", i)
		}
	}

	return nil
}
