package route

import "fmt"

// InvalidPatternError reports a route pattern that could not be compiled.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// DuplicateRouteError reports a registration that overlaps a route already
// held by the table for the same method.
type DuplicateRouteError struct {
	Method   Method
	Pattern  string
	Existing string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route %s %s conflicts with registered pattern %s", e.Method, e.Pattern, e.Existing)
}

// Fault describes a middleware or handler failure during dispatch. Faults
// travel back to the caller as data; a dispatch never panics or errors
// across the table boundary.
type Fault struct {
	Scope   string `json:"scope,omitempty"`
	Route   string `json:"route"`
	Message string `json:"message"`
}

func (f *Fault) Error() string {
	if f.Route == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Route, f.Message)
}
