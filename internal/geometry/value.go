package geometry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the forms a placement value can take.
type ValueKind int

const (
	// Pixels is an absolute pixel amount.
	Pixels ValueKind = iota
	// Percent scales against the relevant reference dimension.
	Percent
	// Center, Min and Max are position symbols. They are invalid for sizes.
	Center
	Min
	Max
)

// Value is one width/height/x/y entry of a Spec. The zero value is 0 pixels.
type Value struct {
	Kind ValueKind
	// Amount is the pixel count for Pixels and the fraction (0.5 = 50%)
	// for Percent. Unused for the symbols.
	Amount float64
}

// Px returns an absolute pixel value.
func Px(n float64) Value {
	return Value{Kind: Pixels, Amount: n}
}

// Pct returns a percentage value; pct is on the 0-100 scale.
func Pct(pct float64) Value {
	return Value{Kind: Percent, Amount: pct / 100}
}

// InvalidSpecError reports a placement value that cannot be used where it
// appeared.
type InvalidSpecError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid placement value %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s value %q: %s", e.Field, e.Value, e.Reason)
}

// ParseValue reads a placement value from its string form: a number,
// "NN%", or one of center/min/max.
func ParseValue(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "center":
		return Value{Kind: Center}, nil
	case "min":
		return Value{Kind: Min}, nil
	case "max":
		return Value{Kind: Max}, nil
	}

	if strings.HasSuffix(trimmed, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "%"), 64)
		if err != nil {
			return Value{}, &InvalidSpecError{Value: s, Reason: "malformed percentage"}
		}
		return Value{Kind: Percent, Amount: pct / 100}, nil
	}

	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Value{}, &InvalidSpecError{Value: s, Reason: "not a number, percentage, or placement symbol"}
	}
	return Value{Kind: Pixels, Amount: n}, nil
}

func (v Value) String() string {
	switch v.Kind {
	case Percent:
		return strconv.FormatFloat(v.Amount*100, 'f', -1, 64) + "%"
	case Center:
		return "center"
	case Min:
		return "min"
	case Max:
		return "max"
	}
	return strconv.FormatFloat(v.Amount, 'f', -1, 64)
}

// UnmarshalJSON accepts a JSON number or any string form ParseValue takes.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Value{Kind: Pixels, Amount: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &InvalidSpecError{Value: string(data), Reason: "expected a number or string"}
	}
	parsed, err := ParseValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON writes pixel values as numbers and everything else in its
// string form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == Pixels {
		return json.Marshal(v.Amount)
	}
	return json.Marshal(v.String())
}
