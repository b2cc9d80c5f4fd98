package mcp

import (
	"reflect"
	"testing"

	"github.com/casement-dev/casement/internal/geometry"
)

func TestCoerceSettingValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{`"vim"`, "vim"},
		{"42", float64(42)},
		{"3.5", 3.5},
		{"true", true},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
		{`[1,2]`, []any{float64(1), float64(2)}},
		{"dark", "dark"},
		{"not json {", "not json {"},
	}
	for _, tt := range tests {
		got := coerceSettingValue(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("coerceSettingValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestPlacementValues(t *testing.T) {
	w, h, x, y, err := placementValues("50%", "600", "center", "max")
	if err != nil {
		t.Fatalf("placementValues: %v", err)
	}
	if want := geometry.Pct(50); *w != want {
		t.Errorf("width = %+v, want %+v", *w, want)
	}
	if want := geometry.Px(600); *h != want {
		t.Errorf("height = %+v, want %+v", *h, want)
	}
	if x.Kind != geometry.Center {
		t.Errorf("x kind = %v, want Center", x.Kind)
	}
	if y.Kind != geometry.Max {
		t.Errorf("y kind = %v, want Max", y.Kind)
	}
}

func TestPlacementValues_EmptyAreNil(t *testing.T) {
	w, h, x, y, err := placementValues("", "", "", "")
	if err != nil {
		t.Fatalf("placementValues: %v", err)
	}
	if w != nil || h != nil || x != nil || y != nil {
		t.Errorf("expected all nil, got %v %v %v %v", w, h, x, y)
	}
}

func TestPlacementValues_InvalidNamesField(t *testing.T) {
	_, _, _, _, err := placementValues("wat", "", "", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got[:5] != "width" {
		t.Errorf("error = %q, want width prefix", got)
	}
}
