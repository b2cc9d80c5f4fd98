package display

import (
	"encoding/json"
	"errors"

	"github.com/casement-dev/casement/internal/host"
)

// Preference expresses where a window should go: nothing, "primary", a
// display id, "left"/"right", or an ordered list mixing ids and
// directions. In JSON it reads from a single string or an array.
type Preference []string

// UnmarshalJSON accepts "left", ["office","right"], or null.
func (p *Preference) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = Preference{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

// Choose resolves pref to one display. displays must be sorted ascending
// by work-area X origin, the ordering Backend.Displays guarantees.
//
// Priority: an empty preference or the literal "primary" takes the primary
// display; a single id matching a known display takes that display; named
// list entries beat direction words; "left"/"right" pick the iteration
// direction (both present or neither means left); and whatever remains
// falls back to the first display in the resolved direction.
func Choose(pref Preference, displays []host.Display, primaryID string) (host.Display, error) {
	if len(displays) == 0 {
		return host.Display{}, errors.New("no displays to choose from")
	}

	if len(pref) == 0 || (len(pref) == 1 && pref[0] == "primary") {
		if d, ok := byID(displays, primaryID); ok {
			return d, nil
		}
		return displays[0], nil
	}

	// Named entries first: the earliest entry naming a known display wins
	// over any direction word, wherever it sits in the list.
	for _, entry := range pref {
		if d, ok := byID(displays, entry); ok {
			return d, nil
		}
	}

	left, right := false, false
	for _, entry := range pref {
		switch entry {
		case "left":
			left = true
		case "right":
			right = true
		}
	}
	if right && !left {
		return displays[len(displays)-1], nil
	}
	return displays[0], nil
}

func byID(displays []host.Display, id string) (host.Display, bool) {
	if id == "" {
		return host.Display{}, false
	}
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return host.Display{}, false
}
