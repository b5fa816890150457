package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evmatch/internal/ir"
)

// orderedHandler appends its scope to a shared log.
type orderedHandler struct {
	scope string
	log   *[]string
	err   error
}

func (h *orderedHandler) ScopeType() string { return h.scope }

func (h *orderedHandler) HandleEvent(ctx context.Context, _ EventInstance) error {
	id, _ := DispatchIDFromContext(ctx)
	*h.log = append(*h.log, h.scope+"@"+id)
	return h.err
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{})
	r := NewRegistry(eng)

	process := NewProcessHandler(eng, nil)
	require.NoError(t, r.Register(process))
	require.NoError(t, r.Register(NewCaseHandler(eng, nil)))

	h, ok := r.Handler(ScopeTypeProcess)
	require.True(t, ok)
	assert.Same(t, process, h)

	_, ok = r.Handler("dmn")
	assert.False(t, ok)

	assert.Equal(t, []string{"bpmn", "cmmn"}, r.ScopeTypes())
}

func TestRegistry_RejectsDuplicateScope(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{})
	r := NewRegistry(eng)

	require.NoError(t, r.Register(NewProcessHandler(eng, nil)))
	err := r.Register(NewProcessHandler(eng, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scope type "bpmn" already registered`)
}

func TestRegistry_RejectsEmptyScope(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{})
	err := NewRegistry(eng).Register(&recordingHandler{})
	assert.ErrorContains(t, err, "empty scope type")
}

func TestRegistry_Consumer(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{})
	r := NewRegistry(eng)
	h := &recordingHandler{scope: "bpmn"}
	require.NoError(t, r.Register(h))

	c, err := r.Consumer("bpmn")
	require.NoError(t, err)
	require.NoError(t, c.EventReceived(context.Background(), Envelope{Payload: orderEvent(ir.NoTenantID)}))
	assert.Len(t, h.events, 1)

	_, err = r.Consumer("cmmn")
	assert.ErrorContains(t, err, `no scope handler registered for "cmmn"`)
}

func TestRegistry_DispatchFansOutInScopeOrder(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{}, WithDispatchIDGenerator(NewFixedGenerator("d-1")))
	r := NewRegistry(eng)

	var log []string
	require.NoError(t, r.Register(&orderedHandler{scope: "cmmn", log: &log}))
	require.NoError(t, r.Register(&orderedHandler{scope: "bpmn", log: &log}))

	err := r.Dispatch(context.Background(), Envelope{Payload: orderEvent(ir.NoTenantID)})
	require.NoError(t, err)
	assert.Equal(t, []string{"bpmn@d-1", "cmmn@d-1"}, log)
}

func TestRegistry_DispatchStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	eng, _ := newTestEngine(&fakeQuerier{}, WithDispatchIDGenerator(NewFixedGenerator("d-1")))
	r := NewRegistry(eng)

	var log []string
	require.NoError(t, r.Register(&orderedHandler{scope: "bpmn", log: &log, err: boom}))
	require.NoError(t, r.Register(&orderedHandler{scope: "cmmn", log: &log}))

	err := r.Dispatch(context.Background(), Envelope{Payload: orderEvent(ir.NoTenantID)})
	assert.Same(t, boom, err, "handler error is returned unmodified")
	assert.Equal(t, []string{"bpmn@d-1"}, log)
}

func TestRegistry_DispatchRejectsInvalidPayloadBeforeHandlers(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{}, WithDispatchIDGenerator(NewFixedGenerator("d-1")))
	r := NewRegistry(eng)

	var log []string
	require.NoError(t, r.Register(&orderedHandler{scope: "bpmn", log: &log}))

	err := r.Dispatch(context.Background(), Envelope{Payload: 3.14})
	require.True(t, IsInvalidPayload(err))
	assert.Contains(t, err.Error(), "float64")
	assert.Empty(t, log)
}

func TestRegistry_DispatchWithoutHandlers(t *testing.T) {
	eng, _ := newTestEngine(&fakeQuerier{}, WithDispatchIDGenerator(NewFixedGenerator("d-1")))
	err := NewRegistry(eng).Dispatch(context.Background(), Envelope{Payload: orderEvent(ir.NoTenantID)})
	assert.NoError(t, err)
}
