package route

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func okHandler(v any) Handler {
	return func(ctx context.Context, req *Request) (any, error) {
		return v, nil
	}
}

func TestHandle_RejectsExactDuplicate(t *testing.T) {
	tbl := NewTable("global", nil)
	if err := tbl.Handle(GET, "/ping", okHandler("pong")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := tbl.Handle(GET, "/ping", okHandler("pong"))
	var dup *DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRouteError, got %v", err)
	}
	if dup.Existing != "/ping" {
		t.Fatalf("expected conflict with /ping, got %q", dup.Existing)
	}
}

func TestHandle_WildcardOverlapIsOneDirectional(t *testing.T) {
	tbl := NewTable("global", nil)

	// /ping then /pi* registers fine: "/pi*" as a concrete path does not
	// match the literal /ping.
	if err := tbl.Handle(GET, "/ping", okHandler(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.Handle(GET, "/pi*", okHandler(nil)); err != nil {
		t.Fatalf("expected /pi* to register after /ping, got %v", err)
	}

	// A literal behind an existing wildcard is rejected.
	other := NewTable("global", nil)
	if err := other.Handle(GET, "/p*", okHandler(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := other.Handle(GET, "/ping", okHandler(nil))
	var dup *DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRouteError for /ping after /p*, got %v", err)
	}
}

func TestHandle_MethodsAreIndependent(t *testing.T) {
	tbl := NewTable("global", nil)
	if err := tbl.Handle(GET, "/ping", okHandler(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.Handle(POST, "/ping", okHandler(nil)); err != nil {
		t.Fatalf("expected POST /ping to coexist with GET /ping, got %v", err)
	}
}

func TestHandle_RejectsUnknownMethod(t *testing.T) {
	tbl := NewTable("global", nil)
	if err := tbl.Handle(Method("DELETE"), "/x", okHandler(nil)); err == nil {
		t.Fatalf("expected error for unsupported method")
	}
}

func TestResolve_NoMatchIsNil(t *testing.T) {
	tbl := NewTable("global", nil)
	if err := tbl.Handle(GET, "/ping", okHandler(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := tbl.Resolve("/missing", GET); m != nil {
		t.Fatalf("expected nil match, got %+v", m)
	}
	if m := tbl.Resolve("/ping", POST); m != nil {
		t.Fatalf("expected nil match for wrong method, got %+v", m)
	}
}

func TestDispatch_MergesParamsAndQuery(t *testing.T) {
	tbl := NewTable("global", nil)
	err := tbl.Handle(GET, "/user/:id", func(ctx context.Context, req *Request) (any, error) {
		return req.Params["id"] + "/" + req.Query["mode"], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/user/42?mode=full", GET, nil)
	if !ok {
		t.Fatalf("expected a match")
	}
	if out.Fault != nil {
		t.Fatalf("unexpected fault: %v", out.Fault)
	}
	if out.Value != "42/full" {
		t.Fatalf("expected 42/full, got %v", out.Value)
	}
}

func TestDispatch_MiddlewareRunsInOrder(t *testing.T) {
	tbl := NewTable("global", nil)
	var trace []string
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		trace = append(trace, "m1")
		next()
	})
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		trace = append(trace, "m2")
		next()
	})
	err := tbl.Handle(GET, "/ping", func(ctx context.Context, req *Request) (any, error) {
		trace = append(trace, "h")
		return "pong", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/ping", GET, nil)
	if !ok || out.Fault != nil {
		t.Fatalf("expected clean dispatch, got ok=%v fault=%v", ok, out.Fault)
	}
	if len(trace) != 3 || trace[0] != "m1" || trace[1] != "m2" || trace[2] != "h" {
		t.Fatalf("expected m1,m2,h order, got %v", trace)
	}
}

func TestDispatch_RespondShortCircuits(t *testing.T) {
	tbl := NewTable("global", nil)
	m2Ran := false
	handlerRan := false
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		respond("blocked")
	})
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		m2Ran = true
		next()
	})
	err := tbl.Handle(GET, "/ping", func(ctx context.Context, req *Request) (any, error) {
		handlerRan = true
		return "pong", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/ping", GET, nil)
	if !ok {
		t.Fatalf("expected a match")
	}
	if out.Value != "blocked" {
		t.Fatalf("expected respond value, got %v", out.Value)
	}
	if m2Ran || handlerRan {
		t.Fatalf("expected short-circuit, m2=%v handler=%v", m2Ran, handlerRan)
	}
}

func TestDispatch_AsyncMiddlewareSettles(t *testing.T) {
	tbl := NewTable("global", nil)
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			next()
		}()
	})
	if err := tbl.Handle(GET, "/ping", okHandler("pong")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/ping", GET, nil)
	if !ok || out.Fault != nil {
		t.Fatalf("expected clean dispatch, got ok=%v fault=%v", ok, out.Fault)
	}
	if out.Value != "pong" {
		t.Fatalf("expected pong, got %v", out.Value)
	}
}

func TestDispatch_HandlerErrorBecomesFault(t *testing.T) {
	tbl := NewTable("win-1", nil)
	err := tbl.Handle(POST, "/close", func(ctx context.Context, req *Request) (any, error) {
		return nil, fmt.Errorf("window already gone")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/close", POST, nil)
	if !ok {
		t.Fatalf("expected a match")
	}
	if out.Fault == nil {
		t.Fatalf("expected a fault")
	}
	if out.Fault.Scope != "win-1" || out.Fault.Route != "/close" {
		t.Fatalf("expected fault scope/route, got %+v", out.Fault)
	}
	if out.Fault.Message != "window already gone" {
		t.Fatalf("expected handler message, got %q", out.Fault.Message)
	}
}

func TestDispatch_PanicBecomesFault(t *testing.T) {
	tbl := NewTable("global", nil)
	err := tbl.Handle(GET, "/boom", func(ctx context.Context, req *Request) (any, error) {
		panic("handler bug")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/boom", GET, nil)
	if !ok {
		t.Fatalf("expected a match")
	}
	if out.Fault == nil {
		t.Fatalf("expected a fault from the panic")
	}

	// The table stays usable after a panic.
	if err := tbl.Handle(GET, "/ok", okHandler("fine")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok = tbl.Dispatch(context.Background(), "/ok", GET, nil)
	if !ok || out.Fault != nil || out.Value != "fine" {
		t.Fatalf("expected table to keep dispatching, got %+v", out)
	}
}

func TestDispatch_MiddlewarePanicBecomesFault(t *testing.T) {
	tbl := NewTable("global", nil)
	tbl.Use(func(ctx context.Context, req *Request, next func(), respond func(any)) {
		panic("middleware bug")
	})
	if err := tbl.Handle(GET, "/ping", okHandler("pong")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := tbl.Dispatch(context.Background(), "/ping", GET, nil)
	if !ok || out.Fault == nil {
		t.Fatalf("expected fault, got ok=%v out=%+v", ok, out)
	}
}

func TestDispatch_IsIdempotentWithoutSideEffects(t *testing.T) {
	tbl := NewTable("global", nil)
	err := tbl.Handle(GET, "/user/:id", func(ctx context.Context, req *Request) (any, error) {
		return req.Params["id"], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok1 := tbl.Dispatch(context.Background(), "/user/7?a=1", GET, nil)
	second, ok2 := tbl.Dispatch(context.Background(), "/user/7?a=1", GET, nil)
	if !ok1 || !ok2 {
		t.Fatalf("expected both dispatches to match")
	}
	if first.Value != second.Value {
		t.Fatalf("expected identical results, got %v and %v", first.Value, second.Value)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod("get"); err != nil || m != GET {
		t.Fatalf("expected GET, got %v %v", m, err)
	}
	if m, err := ParseMethod(" POST "); err != nil || m != POST {
		t.Fatalf("expected POST, got %v %v", m, err)
	}
	if _, err := ParseMethod("PATCH"); err == nil {
		t.Fatalf("expected error for PATCH")
	}
}
