package hypernote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/futurepaul/hypernote-pages/internal/compiler"
	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/futurepaul/hypernote-pages/internal/imports"
	"github.com/futurepaul/hypernote-pages/internal/logging"
	"github.com/futurepaul/hypernote-pages/internal/runtime"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
)

// Engine is the high-level entry point: one Engine renders one document
// instance. It wires the evaluator, renderer, import resolver and action
// executor around the collaborator ports.
type Engine struct {
	doc     *domain.Document
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	queries   ports.QuerySource
	records   ports.RecordSource
	fetcher   ports.ComponentFetcher
	signer    ports.Signer
	publisher ports.Publisher

	eval     *expr.Evaluator
	renderer *runtime.Renderer
	executor *runtime.Executor
	resolver *imports.Resolver
	form     *runtime.FormState

	importOnce sync.Once
	components map[string]*domain.Node
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithQuerySource injects the external query-result source.
func WithQuerySource(q ports.QuerySource) Option {
	return func(e *Engine) { e.queries = q }
}

// WithRecordSource injects the point-lookup source the data-bound
// primitives fetch through.
func WithRecordSource(r ports.RecordSource) Option {
	return func(e *Engine) { e.records = r }
}

// WithComponentFetcher injects the import resolver's fetch backend.
func WithComponentFetcher(f ports.ComponentFetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// WithSigner injects the external event signer.
func WithSigner(s ports.Signer) Option {
	return func(e *Engine) { e.signer = s }
}

// WithPublisher injects the multi-destination publish collaborator.
func WithPublisher(p ports.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source for created_at stamps and
// format_date(relative).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine for an already-decoded document.
func New(doc *domain.Document, opts ...Option) (*Engine, error) {
	if doc == nil {
		return nil, errors.New("document is required")
	}
	e := &Engine{
		doc: doc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.eval = expr.New(e.logger, expr.WithClock(func() time.Time { return e.now() }))
	e.renderer = runtime.NewRenderer(e.logger, e.eval, e.records, e.metrics)
	e.executor = runtime.NewExecutor(e.logger, e.eval, e.signer, e.publisher, e.metrics,
		runtime.WithExecutorClock(func() time.Time { return e.now() }))
	e.resolver = imports.New(e.fetcher, e.logger, e.metrics)
	e.form = runtime.NewFormState(doc.Meta.Form)
	return e, nil
}

// Load decodes a document from its JSON interchange form and creates an
// Engine for it.
func Load(data []byte, opts ...Option) (*Engine, error) {
	doc, err := compiler.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return New(doc, opts...)
}

// Render evaluates the document against the current state of every
// collaborator and returns the render tree. Data that has not arrived
// yet renders as absent; call Render again (or use Watch) once sources
// update.
func (e *Engine) Render(ctx context.Context) []*domain.RenderNode {
	scope := e.buildScope(ctx)
	e.form.ApplyDeferred(e.eval, scope)
	scope.Form = e.form.Snapshot()
	return e.renderer.Render(ctx, e.doc.Nodes, scope)
}

// Watch re-renders whenever the query source signals an update and sends
// the fresh tree on the returned channel. The channel closes when ctx is
// canceled. It requires a query source implementing ports.Watchable.
func (e *Engine) Watch(ctx context.Context) (<-chan []*domain.RenderNode, error) {
	watchable, ok := e.queries.(ports.Watchable)
	if !ok {
		return nil, errors.New("query source does not support watching")
	}
	updates, err := watchable.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []*domain.RenderNode, 1)
	go func() {
		defer close(out)
		out <- e.Render(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case name, open := <-updates:
				if !open {
					return
				}
				e.logger.Debug("query updated, re-rendering", "query", name)
				select {
				case out <- e.Render(ctx):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// SetFormValue stores one field value, as typed by the user.
func (e *Engine) SetFormValue(field, value string) {
	e.form.Set(field, value)
}

// FormValue returns the current value of a form field.
func (e *Engine) FormValue(field string) string {
	return e.form.Get(field)
}

// ExecuteAction builds, signs and publishes the named declared action.
// It rejects a trigger while another execution is in flight.
func (e *Engine) ExecuteAction(ctx context.Context, name string) (*domain.SignedEvent, error) {
	if e.signer == nil || e.publisher == nil {
		return nil, errors.New("actions require a signer and a publisher")
	}
	scope := e.buildScope(ctx)
	return e.executor.Execute(ctx, name, e.doc.Meta.Actions, scope, e.form)
}

// Publishing reports whether an action execution is in flight. Hosts use
// this to gate their publish controls.
func (e *Engine) Publishing() bool {
	return e.executor.Publishing()
}

// Meta exposes the document's decoded frontmatter.
func (e *Engine) Meta() domain.Meta {
	return e.doc.Meta
}

func (e *Engine) buildScope(ctx context.Context) *runtime.Scope {
	e.importOnce.Do(func() {
		e.components = e.resolver.ResolveAll(ctx, e.doc.Meta.Imports)
	})

	scope := &runtime.Scope{
		State:      e.doc.Meta.State,
		Form:       e.form.Snapshot(),
		Components: e.components,
	}
	if e.queries != nil {
		scope.Queries = e.queries.Snapshot()
	}
	if e.signer != nil {
		scope.Identity = e.signer.PublicKey()
	}
	return scope
}
