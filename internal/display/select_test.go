package display

import (
	"encoding/json"
	"testing"

	"github.com/casement-dev/casement/internal/geometry"
	"github.com/casement-dev/casement/internal/host"
)

func threeDisplays() []host.Display {
	// Ordered left to right, primary in the middle.
	return []host.Display{
		{ID: "DP-1", Label: "A", Work: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{ID: "DP-2", Label: "B", Primary: true, Work: geometry.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}},
		{ID: "DP-3", Label: "C", Work: geometry.Rect{X: 3840, Y: 0, Width: 1920, Height: 1080}},
	}
}

func TestChoose_NoPreferenceTakesPrimary(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(nil, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-2" {
		t.Fatalf("expected primary DP-2, got %s", got.ID)
	}
}

func TestChoose_PrimaryLiteral(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"primary"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-2" {
		t.Fatalf("expected DP-2, got %s", got.ID)
	}
}

func TestChoose_ExactIDMatch(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"DP-3"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-3" {
		t.Fatalf("expected DP-3, got %s", got.ID)
	}
}

func TestChoose_RightTakesLastInOrder(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"right"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-3" {
		t.Fatalf("expected rightmost DP-3, got %s", got.ID)
	}
}

func TestChoose_UnknownNameFallsToDirection(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"unknown-name", "left"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-1" {
		t.Fatalf("expected leftmost DP-1, got %s", got.ID)
	}
}

func TestChoose_NamedEntryBeatsDirection(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"right", "DP-1"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-1" {
		t.Fatalf("expected named DP-1 over right, got %s", got.ID)
	}
}

func TestChoose_BothDirectionsDefaultToLeft(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"left", "right"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-1" {
		t.Fatalf("expected DP-1 when both directions appear, got %s", got.ID)
	}
}

func TestChoose_NothingMatchesFallsToFirst(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(Preference{"ghost"}, displays, "DP-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-1" {
		t.Fatalf("expected first display, got %s", got.ID)
	}
}

func TestChoose_UnknownPrimaryFallsToFirst(t *testing.T) {
	displays := threeDisplays()
	got, err := Choose(nil, displays, "gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "DP-1" {
		t.Fatalf("expected first display, got %s", got.ID)
	}
}

func TestChoose_EmptyDisplayListErrors(t *testing.T) {
	if _, err := Choose(nil, nil, ""); err == nil {
		t.Fatalf("expected error for empty display list")
	}
}

func TestPreference_UnmarshalForms(t *testing.T) {
	var p Preference
	if err := json.Unmarshal([]byte(`"left"`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 1 || p[0] != "left" {
		t.Fatalf("expected [left], got %v", p)
	}

	if err := json.Unmarshal([]byte(`["office","right"]`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 2 || p[0] != "office" || p[1] != "right" {
		t.Fatalf("expected [office,right], got %v", p)
	}
}
