// internal/providers/openai/payload.go
package openai

import (
	"strings"

	"github.com/mwiater/tokbench/internal/providers"
)

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// buildPayload assembles the request body. ExtraBody keys are merged into the
// top level and win over the standard fields.
func buildPayload(req providers.StreamRequest) map[string]any {
	payload := map[string]any{
		"model":    req.Model,
		"messages": toOpenAIMessages(req.History),
		"stream":   !req.DisableStreaming,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	if len(req.Tools) > 0 {
		payload["tools"] = formatToolsForPayload(req.Tools)
		choice := strings.TrimSpace(req.ToolChoice)
		if choice == "" {
			choice = "auto"
		}
		payload["tool_choice"] = choice
	}
	for key, value := range req.ExtraBody {
		payload[key] = value
	}
	return payload
}

// toOpenAIMessages converts the history to wire form. An assistant message
// that only carries tool calls omits its content.
func toOpenAIMessages(messages []providers.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		wire := openAIMessage{
			Role:       strings.TrimSpace(msg.Role),
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			tc := openAIToolCall{ID: call.ID, Type: "function"}
			tc.Function.Name = call.Name
			tc.Function.Arguments = call.Arguments
			wire.ToolCalls = append(wire.ToolCalls, tc)
		}
		if !(wire.Role == providers.RoleAssistant && len(wire.ToolCalls) > 0 && msg.Content == "") {
			content := msg.Content
			wire.Content = &content
		}
		out = append(out, wire)
	}
	return out
}

// formatToolsForPayload converts tool definitions into function-tool entries.
func formatToolsForPayload(tools []providers.ToolDefinition) []map[string]any {
	formatted := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		function := map[string]any{
			"name": tool.Name,
		}
		if tool.Description != "" {
			function["description"] = tool.Description
		}
		if tool.Parameters != nil {
			function["parameters"] = tool.Parameters
		}
		formatted = append(formatted, map[string]any{
			"type":     "function",
			"function": function,
		})
	}
	return formatted
}
