package harness

// MatchTrace records one Match produced while running a scenario.
type MatchTrace struct {
	Event         string   `json:"event"`
	DispatchID    string   `json:"dispatch_id"`
	ScopeType     string   `json:"scope_type"`
	Subscriptions []string `json:"subscriptions"`
	Specificity   int      `json:"specificity"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Trace contains every match in dispatch order.
	Trace []MatchTrace `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []MatchTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
