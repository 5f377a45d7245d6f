package content

import (
	"fmt"
	"strings"
)

// State is the publication state of a post or project.
type State string

// Publication states.
const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

// parseState normalizes a frontmatter state. An empty value yields def.
func parseState(value string, def State) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return def, nil
	case StateDraft:
		return StateDraft, nil
	case StatePublished:
		return StatePublished, nil
	default:
		return "", fmt.Errorf("%w: %q (must be draft or published)", ErrInvalidState, value)
	}
}
