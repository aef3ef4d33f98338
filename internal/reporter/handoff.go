package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/memory"
	"github.com/setevik/remindctx/internal/snapshot"
)

// Handoff is the document passed to a downstream reasoning step: the derived
// context, the events it was built from and, when available, the user profile.
type Handoff struct {
	Context *snapshot.Context `json:"context"`
	Events  []event.Event     `json:"events"`
	Profile *memory.Profile   `json:"user_profile,omitempty"`
}

// WriteJSON encodes h as indented JSON.
func WriteJSON(w io.Writer, h Handoff) error {
	if h.Events == nil {
		h.Events = []event.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("encoding handoff: %w", err)
	}
	return nil
}
