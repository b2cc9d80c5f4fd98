package geometry

import "fmt"

// Rect is an absolute pixel rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String renders the rectangle in X geometry form, e.g. 1920x1080+0+0.
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Spec describes desired window geometry before resolution. Width and
// Height take pixel or percentage values; X and Y additionally take the
// center/min/max symbols. Padding is a pixel margin kept on every side of
// the display.
type Spec struct {
	Width   Value `json:"width"`
	Height  Value `json:"height"`
	X       Value `json:"x"`
	Y       Value `json:"y"`
	Padding int   `json:"padding"`
}

// Resolve computes the final rectangle for spec on the display work area.
//
// Sizes resolve first: percentages scale the display dimensions and the
// position symbols are invalid here. Positions then resolve against the
// leftover travel range (display dimension minus resolved size): a
// percentage scales the travel, center is half of it, min is zero and max
// the whole range. The rectangle translates into the display's coordinate
// space, the padding clamp shrinks oversized dimensions and pins the
// matching origin to the padding edge, and everything truncates to whole
// pixels.
func Resolve(spec Spec, work Rect) (Rect, error) {
	width, err := resolveSize(spec.Width, float64(work.Width), "width")
	if err != nil {
		return Rect{}, err
	}
	height, err := resolveSize(spec.Height, float64(work.Height), "height")
	if err != nil {
		return Rect{}, err
	}

	x := resolvePosition(spec.X, float64(work.Width)-width)
	y := resolvePosition(spec.Y, float64(work.Height)-height)

	x += float64(work.X)
	y += float64(work.Y)

	pad := spec.Padding
	if pad < 0 {
		pad = 0
	}
	if maxWidth := float64(work.Width - 2*pad); width > maxWidth {
		width = maxWidth
		x = float64(work.X + pad)
	}
	if maxHeight := float64(work.Height - 2*pad); height > maxHeight {
		height = maxHeight
		y = float64(work.Y + pad)
	}

	return Rect{X: int(x), Y: int(y), Width: int(width), Height: int(height)}, nil
}

func resolveSize(v Value, dimension float64, field string) (float64, error) {
	switch v.Kind {
	case Pixels:
		return v.Amount, nil
	case Percent:
		return v.Amount * dimension, nil
	}
	return 0, &InvalidSpecError{Field: field, Value: v.String(), Reason: "sizes take numbers or percentages only"}
}

func resolvePosition(v Value, travel float64) float64 {
	switch v.Kind {
	case Percent:
		return v.Amount * travel
	case Center:
		return travel / 2
	case Min:
		return 0
	case Max:
		return travel
	}
	return v.Amount
}
