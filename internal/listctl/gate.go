package listctl

import (
	"fmt"
	"slices"
)

// Mode distinguishes single from bulk deletes.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBulk   Mode = "bulk"
)

// ConfirmationRequest describes a destructive action awaiting confirmation.
type ConfirmationRequest struct {
	Mode  Mode     `json:"mode"`
	IDs   []string `json:"ids"`
	Label string   `json:"label"`
}

// Title is the dialog heading.
func (r ConfirmationRequest) Title() string {
	if r.Mode == ModeBulk {
		if len(r.IDs) == 1 {
			return "Delete 1 selected item?"
		}
		return fmt.Sprintf("Delete %d selected items?", len(r.IDs))
	}
	if r.Label == "" {
		return "Delete this item?"
	}
	return fmt.Sprintf("Delete %q?", r.Label)
}

// Gate is the two-state confirmation machine: closed, or open with a request.
// It is not safe for concurrent use; the owning Controller serializes access.
type Gate struct {
	req *ConfirmationRequest
}

// Open moves the gate to open, replacing any pending request.
func (g *Gate) Open(req ConfirmationRequest) {
	req.IDs = slices.Clone(req.IDs)
	g.req = &req
}

// Close moves the gate to closed.
func (g *Gate) Close() {
	g.req = nil
}

// IsOpen reports whether a request is pending.
func (g *Gate) IsOpen() bool {
	return g.req != nil
}

// Pending returns a copy of the pending request.
func (g *Gate) Pending() (ConfirmationRequest, bool) {
	if g.req == nil {
		return ConfirmationRequest{}, false
	}
	out := *g.req
	out.IDs = slices.Clone(g.req.IDs)
	return out, true
}
