// internal/stream/accumulator.go
package stream

import (
	"slices"

	"github.com/mwiater/tokbench/internal/providers"
)

// ToolCallRequest is a tool call reassembled from streamed fragments.
type ToolCallRequest struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Accumulator reassembles interleaved tool-call fragments keyed by slot index.
// The name of a slot is fixed by the first fragment that carries one; argument
// text is appended in arrival order and never rewritten.
type Accumulator struct {
	slots map[int]*ToolCallRequest
	order []int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{slots: make(map[int]*ToolCallRequest)}
}

// Add folds one fragment into its slot, creating the slot on first sight.
func (a *Accumulator) Add(fragment providers.ToolCallFragment) {
	slot, ok := a.slots[fragment.Index]
	if !ok {
		slot = &ToolCallRequest{Index: fragment.Index}
		a.slots[fragment.Index] = slot
		a.order = append(a.order, fragment.Index)
	}
	if slot.ID == "" && fragment.ID != "" {
		slot.ID = fragment.ID
	}
	if slot.Name == "" && fragment.Name != "" {
		slot.Name = fragment.Name
	}
	if fragment.Arguments != "" {
		slot.Arguments += fragment.Arguments
	}
}

// Len reports the number of slots observed.
func (a *Accumulator) Len() int {
	return len(a.slots)
}

// Calls returns a snapshot of every slot in ascending index order.
func (a *Accumulator) Calls() []ToolCallRequest {
	if len(a.slots) == 0 {
		return nil
	}
	indexes := slices.Clone(a.order)
	slices.Sort(indexes)
	calls := make([]ToolCallRequest, 0, len(indexes))
	for _, idx := range indexes {
		calls = append(calls, *a.slots[idx])
	}
	return calls
}
