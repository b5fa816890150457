package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/queryir"
)

// joinEncoder renders a mapping as "a=1&b=2" with names sorted. Readable
// keys keep test expectations obvious.
var joinEncoder = EncoderFunc(func(params map[string]ir.IRValue) (string, error) {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%v", n, params[n])
	}
	return strings.Join(parts, "&"), nil
})

// fakeQuerier records every filter and returns canned results.
type fakeQuerier struct {
	mu      sync.Mutex
	filters []queryir.Predicate
	result  []ir.EventSubscription
	err     error
}

func (f *fakeQuerier) ListSubscriptions(_ context.Context, filter queryir.Predicate) ([]ir.EventSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeQuerier) lastFilter() queryir.Predicate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.filters) == 0 {
		return nil
	}
	return f.filters[len(f.filters)-1]
}

// fakeUnitOfWork hands q to every callback and counts invocations.
type fakeUnitOfWork struct {
	q     Querier
	calls int
}

func (u *fakeUnitOfWork) run(ctx context.Context, fn func(ctx context.Context, q Querier) ([]ir.EventSubscription, error)) ([]ir.EventSubscription, error) {
	u.calls++
	return fn(ctx, u.q)
}

// discardLogger suppresses logs in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an engine over a fake querier.
func newTestEngine(q *fakeQuerier, opts ...EngineOption) (*Engine, *fakeUnitOfWork) {
	uow := &fakeUnitOfWork{q: q}
	opts = append([]EngineOption{WithLogger(discardLogger())}, opts...)
	return New(joinEncoder, uow.run, opts...), uow
}

func orderEvent(tenantID string, params ...ir.CorrelationParameter) *ir.EventInstance {
	return ir.NewEventInstance(ir.EventModel{Key: "orderPlaced", TenantID: tenantID}, tenantID, params...)
}

func strPtr(s string) *string {
	return &s
}
