package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/evmatch/internal/compiler"
	"github.com/roach88/evmatch/internal/engine"
	"github.com/roach88/evmatch/internal/ir"
	"github.com/roach88/evmatch/internal/store"
)

// Error codes reported by the match command.
const (
	ErrCodeBadPayload   = "E_BAD_PAYLOAD"   // --payload is not a JSON object of IR values
	ErrCodeUnknownEvent = "E_UNKNOWN_EVENT" // --event names no model
	ErrCodeInvalidModel = "E_INVALID_MODEL" // models failed validation
	ErrCodeDatabase     = "E_DATABASE"      // database missing or unreadable
	ErrCodeDispatch     = "E_DISPATCH"      // matching failed
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Database  string
	ModelsDir string
	Event     string
	Payload   string
	Tenant    string
	Scopes    []string
}

// ScopeMatch is the outcome for one scope type.
type ScopeMatch struct {
	ScopeType     string   `json:"scope_type"`
	Subscriptions []string `json:"subscriptions"`
	Specificity   int      `json:"specificity"`
}

// MatchResult is the outcome of one match command.
type MatchResult struct {
	DispatchID string       `json:"dispatch_id"`
	Event      string       `json:"event"`
	Keys       []string     `json:"keys"`
	Matches    []ScopeMatch `json:"matches"`
}

// String renders the text form.
func (r MatchResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dispatch %s: %s (%d candidate key(s))\n", r.DispatchID, r.Event, len(r.Keys))
	if len(r.Matches) == 0 {
		b.WriteString("  no matching subscriptions")
		return b.String()
	}
	for i, m := range r.Matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %s: %s (specificity %d)", m.ScopeType, strings.Join(m.Subscriptions, ", "), m.Specificity)
	}
	return b.String()
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one event occurrence against stored subscriptions",
		Long: `Build the candidate correlation keys for an event occurrence and list the
subscriptions interested in it, per scope type.

The payload is a JSON object; correlation parameters are read from it in the
order the event model declares them. Floats are rejected.

Example:
  evmatch match --db ./evmatch.db --models ./models \
    --event orderPlaced --payload '{"orderId":"42","region":"EU"}'
  evmatch match --event contractSigned --payload '{"contractId":"c1"}' --scope bpmn --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, cmd)
		},
	}

	cfg := rootOpts.Config
	cmd.Flags().StringVar(&opts.Database, "db", cfg.Database, "path to SQLite subscription database")
	cmd.Flags().StringVar(&opts.ModelsDir, "models", cfg.ModelsDir, "directory of CUE event models")
	cmd.Flags().StringVar(&opts.Event, "event", "", "event model name or key (required)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "event payload as a JSON object")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant of the occurrence")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", cfg.Scopes, "scope types to match against")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func runMatch(opts *MatchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger()

	payload, err := parsePayload(opts.Payload)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadPayload, "invalid payload", err)
	}

	models, err := compiler.LoadEventModels(opts.ModelsDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeModelsLoad, "failed to load models", err)
	}
	if errs := compiler.Validate(models); len(errs) > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidModel, "invalid event models", errs[0])
	}

	model, ok := compiler.Lookup(models, opts.Event)
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownEvent,
			fmt.Sprintf("unknown event model %q", opts.Event), nil)
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ids := &lastIDGenerator{next: engine.UUIDv7Generator{}}
	enc := newRecordingEncoder(engine.CanonicalEncoder{})
	eng := engine.New(enc, engine.StoreUnitOfWork(st),
		engine.WithLogger(logger),
		engine.WithDispatchIDGenerator(ids),
	)

	recorder := &engine.MatchRecorder{}
	registry := engine.NewRegistry(eng)
	for _, scope := range opts.Scopes {
		if err := registry.Register(engine.NewSubscriptionHandler(scope, eng, recorder)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDispatch, "invalid scope", err)
		}
	}

	event := model.Extract(payload, opts.Tenant)
	formatter.VerboseLog("Event %s: %d correlation parameter(s)", model.Key, len(event.CorrelationParameters()))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := registry.Dispatch(ctx, engine.Envelope{
		Payload:   event,
		EventName: model.Key,
	}); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDispatch, "match failed", err)
	}

	result := MatchResult{
		DispatchID: ids.last,
		Event:      model.Key,
		Keys:       enc.Keys(),
		Matches:    []ScopeMatch{},
	}
	for _, m := range recorder.Matches() {
		result.Matches = append(result.Matches, ScopeMatch{
			ScopeType:     m.ScopeType,
			Subscriptions: m.SubscriptionIDs(),
			Specificity:   m.Specificity(),
		})
	}

	return formatter.SuccessWithTrace(result, result.DispatchID)
}

// parsePayload decodes a JSON object, keeping numbers exact so integers
// survive and floats are rejected by ir.ObjectFromAny.
func parsePayload(raw string) (ir.IRObject, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("payload must be a JSON object, got null")
	}
	return ir.ObjectFromAny(m)
}

// recordingEncoder remembers every key the engine encodes, so the candidate
// keys of a dispatch can be reported without encoding them again.
type recordingEncoder struct {
	next engine.Encoder
	seen map[string]struct{}
}

func newRecordingEncoder(next engine.Encoder) *recordingEncoder {
	return &recordingEncoder{next: next, seen: make(map[string]struct{})}
}

func (e *recordingEncoder) Encode(params map[string]ir.IRValue) (string, error) {
	key, err := e.next.Encode(params)
	if err != nil {
		return "", err
	}
	e.seen[key] = struct{}{}
	return key, nil
}

// Keys returns the distinct encoded keys, sorted.
func (e *recordingEncoder) Keys() []string {
	keys := slices.AppendSeq(make([]string, 0, len(e.seen)), maps.Keys(e.seen))
	slices.Sort(keys)
	return keys
}

// lastIDGenerator remembers the most recent dispatch ID.
type lastIDGenerator struct {
	next engine.DispatchIDGenerator
	last string
}

func (g *lastIDGenerator) Generate() string {
	g.last = g.next.Generate()
	return g.last
}
