// internal/providers/provider.go

// Package providers defines the transport-neutral types exchanged with an
// inference endpoint: chat messages, tool definitions, stream requests and the
// timestamped events a streaming response is decomposed into.
package providers

import (
	"context"
	"time"

	"github.com/mwiater/tokbench/internal/appconfig"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage represents a single message in a chat conversation.
// ToolCalls is only set on assistant messages; ToolCallID only on tool messages.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a completed function invocation attached to an assistant message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition defines the structure of a tool that can be invoked by a provider.
// It includes the tool's name, a description of its purpose, and a schema for its parameters.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// EventKind tags the payload carried by a StreamEvent.
type EventKind int

const (
	// EventContent carries a visible text fragment.
	EventContent EventKind = iota
	// EventReasoning carries a reasoning_content fragment.
	EventReasoning
	// EventToolCall carries one tool-call fragment.
	EventToolCall
)

func (k EventKind) String() string {
	switch k {
	case EventContent:
		return "content"
	case EventReasoning:
		return "reasoning"
	case EventToolCall:
		return "tool_call"
	default:
		return "unknown"
	}
}

// ToolCallFragment is a partial tool call as it arrives on the wire. An empty
// Name or Arguments means the fragment did not carry that field.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// StreamEvent is one unit decoded from a response, stamped at arrival.
type StreamEvent struct {
	Kind     EventKind
	Text     string
	ToolCall ToolCallFragment
	At       time.Time
}

// StreamRequest encapsulates all the information needed to initiate a chat stream.
type StreamRequest struct {
	Endpoint         appconfig.Endpoint
	Model            string
	History          []ChatMessage
	Tools            []ToolDefinition
	ToolChoice       string
	MaxTokens        int
	Temperature      *float64
	ExtraBody        map[string]any
	DisableStreaming bool
}

// EventHandler receives events in arrival order. Returning an error stops the stream.
type EventHandler func(StreamEvent) error

// Transport is implemented by every inference client.
type Transport interface {
	// Stream issues the request and delivers decoded events until the response ends.
	Stream(ctx context.Context, req StreamRequest, onEvent EventHandler) error
	// Close releases any resources held by the transport.
	Close() error
}
