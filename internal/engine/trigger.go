package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/evmatch/internal/ir"
)

// Match is the result of one scope handler run with at least one
// subscription.
type Match struct {
	DispatchID    string
	ScopeType     string
	Event         EventInstance
	Subscriptions []ir.EventSubscription

	// MostSpecific is nil when the event carried no correlation parameters.
	MostSpecific *CorrelationKey
}

// SubscriptionIDs returns the matched subscription IDs in match order.
func (m Match) SubscriptionIDs() []string {
	ids := make([]string, len(m.Subscriptions))
	for i, s := range m.Subscriptions {
		ids[i] = s.ID
	}
	return ids
}

// Specificity is the parameter count of the most specific key, or 0.
func (m Match) Specificity() int {
	if m.MostSpecific == nil {
		return 0
	}
	return m.MostSpecific.Specificity()
}

// Trigger receives matches. Starting the workflow a subscription stands for
// is the trigger's business.
type Trigger interface {
	Trigger(ctx context.Context, m Match) error
}

// TriggerFunc adapts a function to the Trigger interface.
type TriggerFunc func(ctx context.Context, m Match) error

// Trigger calls f(ctx, m).
func (f TriggerFunc) Trigger(ctx context.Context, m Match) error {
	return f(ctx, m)
}

// LogTrigger logs every matched subscription.
type LogTrigger struct {
	logger *slog.Logger
}

// NewLogTrigger creates a LogTrigger. A nil logger uses slog.Default().
func NewLogTrigger(logger *slog.Logger) *LogTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTrigger{logger: logger}
}

// Trigger implements Trigger.
func (t *LogTrigger) Trigger(ctx context.Context, m Match) error {
	for _, sub := range m.Subscriptions {
		t.logger.InfoContext(ctx, "subscription triggered",
			"dispatch_id", m.DispatchID,
			"scope_type", m.ScopeType,
			"subscription_id", sub.ID,
			"scope_id", sub.ScopeID,
			"correlated", sub.HasConfiguration(),
		)
	}
	return nil
}

// MatchRecorder keeps every match it receives.
//
// Thread-safety: safe for concurrent use via internal mutex.
type MatchRecorder struct {
	mu      sync.Mutex
	matches []Match
}

// Trigger implements Trigger.
func (r *MatchRecorder) Trigger(_ context.Context, m Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
	return nil
}

// Matches returns the recorded matches in arrival order.
func (r *MatchRecorder) Matches() []Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.matches)
}

// Reset discards recorded matches.
func (r *MatchRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = nil
}
