package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Method is the verb a route is registered under.
type Method string

const (
	GET  Method = "GET"
	POST Method = "POST"
)

// ParseMethod normalizes a method string coming off the wire.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case GET:
		return GET, nil
	case POST:
		return POST, nil
	}
	return "", fmt.Errorf("unsupported method %q", s)
}

// Handler produces the result of a dispatched request.
type Handler func(ctx context.Context, req *Request) (any, error)

// Middleware runs ahead of the handler. Calling next advances the chain;
// respond(v) settles the dispatch with v and nothing after it runs. The
// first call wins, later calls on the same step are no-ops. A middleware
// may settle asynchronously after returning; the chain waits for it.
type Middleware func(ctx context.Context, req *Request, next func(), respond func(v any))

// Request is the per-dispatch value handed to middleware and handlers.
// It is exclusive to its dispatch and never shared.
type Request struct {
	Path    string
	RawPath string
	Method  Method
	Params  Params
	Query   map[string]string
	Body    json.RawMessage
}

// Route pairs a compiled pattern with its handler. Immutable after
// registration; owned by the table that registered it.
type Route struct {
	Pattern *Pattern
	handler Handler
}

// Match is a resolved dispatch target.
type Match struct {
	Route   *Route
	Params  Params
	Query   map[string]string
	Path    string
	RawPath string
}

// Outcome is the settled result of one dispatch.
type Outcome struct {
	Value any
	// Fault is non-nil when the handler or a middleware failed. The value
	// field is unset in that case.
	Fault *Fault
}

// Table is a per-scope route registry with an ordered middleware chain.
//
// Use and Handle belong to the configuration phase: they must finish before
// the first Dispatch. The table does not lock registration against dispatch;
// once registration has settled, any number of concurrent dispatches are
// safe.
type Table struct {
	scope      string
	logger     *slog.Logger
	middleware []Middleware
	routes     map[Method][]*Route
}

// NewTable creates an empty table for the named scope. A nil logger falls
// back to slog.Default.
func NewTable(scope string, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		scope:  scope,
		logger: logger,
		routes: make(map[Method][]*Route),
	}
}

// Scope returns the name the table was created with.
func (t *Table) Scope() string {
	return t.scope
}

// Use appends a middleware to the chain. Middleware run in registration
// order on every dispatch of this table, with the matched handler as the
// terminal step.
func (t *Table) Use(mw Middleware) {
	t.middleware = append(t.middleware, mw)
}

// Handle registers a handler for method and pattern.
//
// The overlap check tests the new pattern's literal text as a concrete path
// against each pattern already registered for the method. That rejects exact
// re-registration and literals shadowed by an existing wildcard, but not two
// parameterized patterns that could both match some path. The check is
// intentionally one-directional and stays that way.
func (t *Table) Handle(method Method, pattern string, h Handler) error {
	if method != GET && method != POST {
		return fmt.Errorf("unsupported method %q", method)
	}
	if h == nil {
		return fmt.Errorf("route %s %s registered without a handler", method, pattern)
	}

	compiled, err := Compile(pattern)
	if err != nil {
		return err
	}

	for _, existing := range t.routes[method] {
		if _, ok := existing.Pattern.Match(pattern); ok {
			return &DuplicateRouteError{Method: method, Pattern: pattern, Existing: existing.Pattern.String()}
		}
	}

	t.routes[method] = append(t.routes[method], &Route{Pattern: compiled, handler: h})
	return nil
}

// Resolve finds the dispatch target for a raw path (query part included)
// and method. A nil result means no route matched, the ordinary not-found
// case. When several routes could match, the earliest registered wins.
func (t *Table) Resolve(rawPath string, method Method) *Match {
	path, query := SplitQuery(rawPath)
	for _, r := range t.routes[method] {
		if params, ok := r.Pattern.Match(path); ok {
			return &Match{Route: r, Params: params, Query: query, Path: path, RawPath: rawPath}
		}
	}
	return nil
}

// Routes returns the registered patterns per method, in registration order.
func (t *Table) Routes() map[Method][]string {
	out := make(map[Method][]string, len(t.routes))
	for method, routes := range t.routes {
		patterns := make([]string, 0, len(routes))
		for _, r := range routes {
			patterns = append(patterns, r.Pattern.String())
		}
		out[method] = patterns
	}
	return out
}

// Dispatch resolves rawPath and runs the middleware chain plus handler.
// The bool is false when no route matched. Middleware and handler failures
// come back inside the Outcome; Dispatch never panics.
func (t *Table) Dispatch(ctx context.Context, rawPath string, method Method, body json.RawMessage) (Outcome, bool) {
	m := t.Resolve(rawPath, method)
	if m == nil {
		return Outcome{}, false
	}

	req := &Request{
		Path:    m.Path,
		RawPath: rawPath,
		Method:  method,
		Params:  m.Params,
		Query:   m.Query,
		Body:    body,
	}

	out := t.run(ctx, m.Route, req)
	if out.Fault != nil {
		t.logger.Warn("dispatch fault",
			"scope", t.scope,
			"method", string(method),
			"path", m.Path,
			"route", m.Route.Pattern.String(),
			"error", out.Fault.Message)
	}
	return out, true
}

type chainSignal struct {
	responded bool
	value     any
}

func (t *Table) run(ctx context.Context, r *Route, req *Request) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Outcome{Fault: t.fault(r, fmt.Sprintf("panic: %v", rec))}
		}
	}()

	for _, mw := range t.middleware {
		done := make(chan chainSignal, 1)
		var once sync.Once
		next := func() {
			once.Do(func() { done <- chainSignal{} })
		}
		respond := func(v any) {
			once.Do(func() { done <- chainSignal{responded: true, value: v} })
		}

		mw(ctx, req, next, respond)

		select {
		case sig := <-done:
			if sig.responded {
				return Outcome{Value: sig.value}
			}
		case <-ctx.Done():
			return Outcome{Fault: t.fault(r, "abandoned: "+ctx.Err().Error())}
		}
	}

	v, err := r.handler(ctx, req)
	if err != nil {
		return Outcome{Fault: t.fault(r, err.Error())}
	}
	return Outcome{Value: v}
}

func (t *Table) fault(r *Route, msg string) *Fault {
	return &Fault{Scope: t.scope, Route: r.Pattern.String(), Message: msg}
}
