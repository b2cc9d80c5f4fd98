package route

import "testing"

func TestCompile_RejectsMalformedPatterns(t *testing.T) {
	cases := []string{
		"",
		"/user/:",
		"/files/*/extra",
		"/a?x=1",
	}
	for _, pattern := range cases {
		if _, err := Compile(pattern); err == nil {
			t.Fatalf("expected compile error for %q", pattern)
		}
	}
}

func TestCompile_ReturnsInvalidPatternError(t *testing.T) {
	_, err := Compile("")
	perr, ok := err.(*InvalidPatternError)
	if !ok {
		t.Fatalf("expected *InvalidPatternError, got %T", err)
	}
	if perr.Pattern != "" {
		t.Fatalf("expected empty pattern in error, got %q", perr.Pattern)
	}
}

func TestMatch_BindsNamedParams(t *testing.T) {
	p, err := Compile("/user/:id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, ok := p.Match("/user/42")
	if !ok {
		t.Fatalf("expected /user/42 to match /user/:id")
	}
	if params["id"] != "42" {
		t.Fatalf("expected id=42, got %q", params["id"])
	}
}

func TestMatch_ExtraSegmentsNeedWildcard(t *testing.T) {
	exact, err := Compile("/user/:id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := exact.Match("/user/42/extra"); ok {
		t.Fatalf("expected /user/42/extra not to match /user/:id")
	}

	wild, err := Compile("/user/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := wild.Match("/user/42/extra"); !ok {
		t.Fatalf("expected /user/42/extra to match /user/*")
	}
}

func TestMatch_WildcardPrefix(t *testing.T) {
	p, err := Compile("/pi*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range []string{"/ping", "/pi", "/pi/sub/path"} {
		if _, ok := p.Match(path); !ok {
			t.Fatalf("expected %s to match /pi*", path)
		}
	}
	if _, ok := p.Match("/pong"); ok {
		t.Fatalf("expected /pong not to match /pi*")
	}
}

func TestMatch_BareWildcardMatchesEmptyRemainder(t *testing.T) {
	p, err := Compile("/user/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.Match("/user"); !ok {
		t.Fatalf("expected /user to match /user/* with zero remaining segments")
	}
}

func TestMatch_LiteralMismatch(t *testing.T) {
	p, err := Compile("/settings/theme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.Match("/settings/font"); ok {
		t.Fatalf("expected /settings/font not to match /settings/theme")
	}
	if _, ok := p.Match("/settings"); ok {
		t.Fatalf("expected /settings not to match /settings/theme")
	}
}

func TestMatch_IsDeterministic(t *testing.T) {
	p, err := Compile("/w/:handle/geometry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		params, ok := p.Match("/w/abc/geometry")
		if !ok || params["handle"] != "abc" {
			t.Fatalf("run %d: expected handle=abc, got %v ok=%v", i, params, ok)
		}
	}
}

func TestSplitQuery_ParsesFlatPairs(t *testing.T) {
	path, query := SplitQuery("/a?x=1&y=2")
	if path != "/a" {
		t.Fatalf("expected path /a, got %q", path)
	}
	if query["x"] != "1" || query["y"] != "2" {
		t.Fatalf("expected x=1 y=2, got %v", query)
	}
}

func TestSplitQuery_DropsMalformedPairs(t *testing.T) {
	_, query := SplitQuery("/a?bad&x=1")
	if len(query) != 1 || query["x"] != "1" {
		t.Fatalf("expected only x=1, got %v", query)
	}

	// Two "=" in one pair is malformed too.
	_, query = SplitQuery("/a?y=1=2&x=1")
	if _, ok := query["y"]; ok {
		t.Fatalf("expected y=1=2 to be dropped, got %v", query)
	}
}

func TestSplitQuery_NoQueryPart(t *testing.T) {
	path, query := SplitQuery("/plain")
	if path != "/plain" {
		t.Fatalf("expected path unchanged, got %q", path)
	}
	if query != nil {
		t.Fatalf("expected nil query, got %v", query)
	}
}
