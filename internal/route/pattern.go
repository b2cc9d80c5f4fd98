package route

import "strings"

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind segmentKind
	// text holds the literal value, the parameter name, or the wildcard
	// prefix depending on kind.
	text string
}

// Pattern is the compiled form of a route string. Immutable after Compile.
type Pattern struct {
	raw      string
	segments []segment
}

// Params holds the values bound by parameter segments during a match.
type Params map[string]string

// Compile parses a route pattern into its matchable form. Segments starting
// with ":" bind the corresponding path segment under that name. A segment
// ending in "*" must come last: it prefix-matches its own path segment and
// consumes the remainder of the path.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "empty pattern"}
	}
	if strings.Contains(pattern, "?") {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "patterns do not carry query strings"}
	}

	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return nil, &InvalidPatternError{Pattern: pattern, Reason: "parameter segment is missing a name"}
			}
			segments = append(segments, segment{kind: segParam, text: name})
		case strings.HasSuffix(part, "*"):
			if i != len(parts)-1 {
				return nil, &InvalidPatternError{Pattern: pattern, Reason: "wildcard segment must come last"}
			}
			segments = append(segments, segment{kind: segWildcard, text: strings.TrimSuffix(part, "*")})
		default:
			segments = append(segments, segment{kind: segLiteral, text: part})
		}
	}

	return &Pattern{raw: pattern, segments: segments}, nil
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// Match tests a concrete path against the pattern and returns the bound
// parameters. A non-matching path is (nil, false), never an error.
func (p *Pattern) Match(path string) (Params, bool) {
	in := splitPath(path)
	params := Params{}

	for i, seg := range p.segments {
		if seg.kind == segWildcard {
			// The wildcard consumes everything from here on. An empty
			// prefix matches even when the path has no segment left.
			if seg.text == "" {
				return params, true
			}
			if i >= len(in) || !strings.HasPrefix(in[i], seg.text) {
				return nil, false
			}
			return params, true
		}

		if i >= len(in) {
			return nil, false
		}
		switch seg.kind {
		case segParam:
			params[seg.text] = in[i]
		case segLiteral:
			if in[i] != seg.text {
				return nil, false
			}
		}
	}

	if len(in) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// SplitQuery separates the query part from a raw path and parses it as a
// flat key=value map. Pairs without exactly one "=" are dropped silently.
func SplitQuery(raw string) (string, map[string]string) {
	path, rawQuery, found := strings.Cut(raw, "?")
	if !found {
		return raw, nil
	}

	query := make(map[string]string)
	for _, pair := range strings.Split(rawQuery, "&") {
		if strings.Count(pair, "=") != 1 {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query[key] = value
	}
	return path, query
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
