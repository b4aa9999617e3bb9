// internal/conversation/state.go
// Package conversation holds the growing message history of a multi-turn
// session and drives one turn at a time against an inference endpoint.
package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/stream"
)

// State is an append-only message log. Messages are never edited or removed.
type State struct {
	messages []providers.ChatMessage
}

// New starts a conversation, seeded with a system message when systemPrompt is set.
func New(systemPrompt string) *State {
	s := &State{}
	if systemPrompt != "" {
		s.messages = append(s.messages, providers.ChatMessage{Role: providers.RoleSystem, Content: systemPrompt})
	}
	return s
}

// CallID returns the synthetic identifier assigned to slot of turn.
func CallID(turn, slot int) string {
	return fmt.Sprintf("call_%d_%d", turn, slot)
}

// AppendUser adds a user message.
func (s *State) AppendUser(content string) {
	s.messages = append(s.messages, providers.ChatMessage{Role: providers.RoleUser, Content: content})
}

// ResolveToolCalls appends one assistant message carrying every call,
// followed by one tool message per call with the scripted result.
func (s *State) ResolveToolCalls(turn int, calls []stream.ToolCallRequest, result string) {
	assistant := providers.ChatMessage{Role: providers.RoleAssistant}
	for _, call := range calls {
		assistant.ToolCalls = append(assistant.ToolCalls, providers.ToolCall{
			ID:        CallID(turn, call.Index),
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	s.messages = append(s.messages, assistant)
	for _, call := range assistant.ToolCalls {
		s.messages = append(s.messages, providers.ChatMessage{
			Role:       providers.RoleTool,
			ToolCallID: call.ID,
			Content:    result,
		})
	}
}

// ResolveContent appends a plain assistant reply.
func (s *State) ResolveContent(content string) {
	s.messages = append(s.messages, providers.ChatMessage{Role: providers.RoleAssistant, Content: content})
}

// Messages returns a copy of the history.
func (s *State) Messages() []providers.ChatMessage {
	out := make([]providers.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the history.
func (s *State) Len() int {
	return len(s.messages)
}

// ApproxPromptTokens estimates the prompt size as serialized bytes over four.
// The figure is for reporting only.
func (s *State) ApproxPromptTokens() int {
	total := 0
	for _, msg := range s.messages {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		total += len(data)
	}
	return total / 4
}

// Validate checks that every tool message answers a call issued earlier.
func (s *State) Validate() error {
	issued := make(map[string]bool)
	for i, msg := range s.messages {
		switch msg.Role {
		case providers.RoleAssistant:
			for _, call := range msg.ToolCalls {
				issued[call.ID] = true
			}
		case providers.RoleTool:
			if !issued[msg.ToolCallID] {
				return fmt.Errorf("message %d: tool result references unknown call %q", i, msg.ToolCallID)
			}
		default:
			if len(msg.ToolCalls) > 0 || msg.ToolCallID != "" {
				return fmt.Errorf("message %d: role %q cannot carry tool call fields", i, msg.Role)
			}
		}
	}
	return nil
}
