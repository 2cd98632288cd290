package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	"github.com/spf13/cast"
)

// Executor turns a declared action plus current scope into a signed,
// published event. At most one execution is in flight per Executor; the
// publishing flag is externally observable for UI gating.
type Executor struct {
	logger    *slog.Logger
	eval      *expr.Evaluator
	signer    ports.Signer
	publisher ports.Publisher
	metrics   *observability.Metrics
	now       func() time.Time

	publishing atomic.Bool
}

// ExecutorOption configures the Executor.
type ExecutorOption func(*Executor)

// WithExecutorClock overrides the created_at time source.
func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(x *Executor) {
		x.now = now
	}
}

// NewExecutor creates an Executor. metrics may be nil.
func NewExecutor(logger *slog.Logger, eval *expr.Evaluator, signer ports.Signer, publisher ports.Publisher, metrics *observability.Metrics, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	x := &Executor{
		logger:    logger,
		eval:      eval,
		signer:    signer,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Publishing reports whether an execution is currently in flight.
func (x *Executor) Publishing() bool {
	return x.publishing.Load()
}

// Execute runs the named action. Failures are returned to the caller for
// display, reset the publishing flag, and leave form state untouched;
// form fields clear only after a successful publish of an action declared
// with clear: true.
//
// No timeout is imposed here: the caller owns ctx, and a signer that
// never returns holds the publishing flag until it does.
func (x *Executor) Execute(ctx context.Context, name string, actions map[string]domain.ActionDefinition, scope *Scope, form *FormState) (*domain.SignedEvent, error) {
	def, ok := actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrActionNotFound, name)
	}
	if !x.publishing.CompareAndSwap(false, true) {
		return nil, domain.ErrActionInFlight
	}
	defer x.publishing.Store(false)

	start := x.now()
	signed, err := x.execute(ctx, name, def, scope)
	x.metrics.ObserveAction(start, err)
	if err != nil {
		x.logger.Error("action failed", "action", name, "err", err)
		return nil, err
	}

	if def.Clear && form != nil {
		form.Reset()
	}
	x.logger.Info("action published", "action", name, "kind", signed.Kind)
	return signed, nil
}

func (x *Executor) execute(ctx context.Context, name string, def domain.ActionDefinition, scope *Scope) (*domain.SignedEvent, error) {
	kind, err := cast.ToIntE(def.Kind)
	if err != nil {
		return nil, fmt.Errorf("action %q: kind %v is not numeric", name, def.Kind)
	}

	content := x.resolveValue(def.Content, scope)
	if def.Base != "" {
		content = x.mergeBase(def.Base, content, scope)
	}

	ev := &domain.Event{
		Kind:      kind,
		Content:   contentString(content),
		Tags:      x.resolveTags(def.Tags, scope),
		CreatedAt: x.now().Unix(),
	}

	signed, err := x.signer.Sign(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("sign failed: %w", err)
	}

	accepted, err := x.publisher.Publish(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}
	if accepted == 0 {
		return nil, domain.ErrPublishRejected
	}
	return signed, nil
}

// resolveValue resolves an action template recursively: mappings and
// lists resolve each entry independently, string leaves resolve through
// resolveLeaf, everything else passes through unchanged.
func (x *Executor) resolveValue(v any, scope *Scope) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, inner := range tv {
			out[k] = x.resolveValue(inner, scope)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = x.resolveValue(inner, scope)
		}
		return out
	case string:
		return x.resolveLeaf(tv, scope)
	default:
		return v
	}
}

// resolveLeaf resolves one string leaf. Scope references evaluate as
// paths; "now" and "user" are special tokens; any other value is a
// literal and passes through.
func (x *Executor) resolveLeaf(s string, scope *Scope) any {
	switch {
	case s == "now":
		return x.now().Unix()
	case s == "user" || s == "user.pubkey":
		return scope.Identity
	case strings.HasPrefix(s, "form.") || strings.HasPrefix(s, "state.") || strings.HasPrefix(s, "queries."):
		v, ok := x.eval.Eval(s, scope)
		if !ok {
			return ""
		}
		return v
	default:
		return s
	}
}

// mergeBase evaluates the base reference, parses it into an object when
// it arrives as a string (empty object on parse failure), shallow-merges
// the resolved content over it, then deletes every key whose value is the
// empty string. The deletion is the explicit field-removal signal.
func (x *Executor) mergeBase(baseRef string, content any, scope *Scope) any {
	base := map[string]any{}
	if bv, ok := x.eval.Eval(baseRef, scope); ok {
		switch tv := bv.(type) {
		case map[string]any:
			base = tv
		case string:
			if err := json.Unmarshal([]byte(tv), &base); err != nil {
				x.logger.Warn("base reference is not valid JSON", "base", baseRef, "err", err)
				base = map[string]any{}
			}
		}
	}

	contentMap, ok := content.(map[string]any)
	if !ok {
		x.logger.Debug("base declared but content is not a mapping; skipping merge")
		return content
	}

	merged := make(map[string]any, len(base)+len(contentMap))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range contentMap {
		merged[k] = v
	}
	for k, v := range merged {
		if s, isStr := v.(string); isStr && s == "" {
			delete(merged, k)
		}
	}
	return merged
}

func (x *Executor) resolveTags(rows [][]any, scope *Scope) [][]string {
	tags := make([][]string, 0, len(rows))
	for _, row := range rows {
		tag := make([]string, 0, len(row))
		for _, cell := range row {
			resolved := cell
			if s, ok := cell.(string); ok {
				resolved = x.resolveLeaf(s, scope)
			}
			tag = append(tag, expr.Stringify(resolved))
		}
		tags = append(tags, tag)
	}
	return tags
}

// contentString serializes resolved content: structured values become a
// JSON string, scalars stringify directly.
func contentString(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return expr.Stringify(v)
	}
}
