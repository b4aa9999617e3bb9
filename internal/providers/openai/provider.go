// internal/providers/openai/provider.go
// Package openai provides a Transport for servers exposing the OpenAI-compatible
// /chat/completions API (vLLM, SGLang, llama.cpp and similar).
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/providers"
)

const (
	dirOut = "TOKBENCH->LLM"
	dirIn  = "LLM->TOKBENCH"
)

// Provider implements providers.Transport over HTTP.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

type modelsResponse struct {
	Data   []remoteModel `json:"data"`
	Models []remoteModel `json:"models"`
}

type remoteModel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Path  string `json:"path"`
}

// Models lists the model identifiers the endpoint reports as served.
func (p *Provider) Models(ctx context.Context, endpoint appconfig.Endpoint) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := baseURL(endpoint) + "/models"
	logging.LogRequest(dirOut, endpoint.Identifier(), "", "", map[string]string{"method": http.MethodGet, "url": url})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	setAuth(req, endpoint)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.LogRequest(dirIn, endpoint.Identifier(), "", "", body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: /models returned %s", resp.Status)
	}

	models, err := parseModels(body)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		if name := modelDisplayName(m); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Stream issues a chat completion and emits one event per content, reasoning
// or tool-call fragment. Events decoded from the same chunk share a timestamp.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, onEvent providers.EventHandler) error {
	body, err := json.Marshal(buildPayload(req))
	if err != nil {
		return err
	}
	logging.LogRequest(dirOut, req.Endpoint.Identifier(), req.Model, "", body)

	streamCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := baseURL(req.Endpoint) + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if !req.DisableStreaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	setAuth(httpReq, req.Endpoint)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest(dirIn, req.Endpoint.Identifier(), req.Model, "", raw)
		return fmt.Errorf("openai: /chat/completions returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if req.DisableStreaming {
		return p.handleNonStreaming(resp, req, onEvent)
	}
	return p.handleStreaming(resp, req, onEvent)
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) handleNonStreaming(resp *http.Response, req providers.StreamRequest, onEvent providers.EventHandler) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	now := time.Now()
	logging.LogRequest(dirIn, req.Endpoint.Identifier(), req.Model, "", body)

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return errors.New("openai: chat response contained no choices")
	}

	msg := parsed.Choices[0].Message
	calls := make([]toolCallDelta, len(msg.ToolCalls))
	for i, call := range msg.ToolCalls {
		call.Index = i
		calls[i] = call
	}
	return emit(onEvent, now, msg.Content, msg.ReasoningContent, calls)
}

func (p *Provider) handleStreaming(resp *http.Response, req providers.StreamRequest, onEvent providers.EventHandler) error {
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return nil
			}
			now := time.Now()
			if p.debug {
				logging.LogRequest(dirIn, req.Endpoint.Identifier(), req.Model, "", data)
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return fmt.Errorf("openai: malformed stream chunk: %w", err)
			}
			if chunk.Error != nil && chunk.Error.Message != "" {
				return fmt.Errorf("openai: stream error: %s", chunk.Error.Message)
			}
			if len(chunk.Choices) > 0 {
				delta := chunk.Choices[0].Delta
				if err := emit(onEvent, now, delta.Content, delta.ReasoningContent, delta.ToolCalls); err != nil {
					return err
				}
			}
		}
		if eof {
			return nil
		}
	}
}

func emit(onEvent providers.EventHandler, at time.Time, content, reasoning string, calls []toolCallDelta) error {
	if content != "" {
		if err := onEvent(providers.StreamEvent{Kind: providers.EventContent, Text: content, At: at}); err != nil {
			return err
		}
	}
	if reasoning != "" {
		if err := onEvent(providers.StreamEvent{Kind: providers.EventReasoning, Text: reasoning, At: at}); err != nil {
			return err
		}
	}
	for _, call := range calls {
		ev := providers.StreamEvent{
			Kind: providers.EventToolCall,
			ToolCall: providers.ToolCallFragment{
				Index:     call.Index,
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
			At: at,
		}
		if err := onEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role             string          `json:"role"`
			Content          string          `json:"content"`
			ReasoningContent string          `json:"reasoning_content"`
			ToolCalls        []toolCallDelta `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role             string          `json:"role"`
			Content          string          `json:"content"`
			ReasoningContent string          `json:"reasoning_content"`
			ToolCalls        []toolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func parseModels(body []byte) ([]remoteModel, error) {
	var wrapped modelsResponse
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if len(wrapped.Data) > 0 {
			return wrapped.Data, nil
		}
		if len(wrapped.Models) > 0 {
			return wrapped.Models, nil
		}
	}

	var direct []remoteModel
	if err := json.Unmarshal(body, &direct); err == nil && len(direct) > 0 {
		return direct, nil
	}

	return nil, fmt.Errorf("openai: unrecognized /models response")
}

func modelDisplayName(model remoteModel) string {
	for _, candidate := range []string{model.ID, model.Name, model.Model, model.Path} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return ""
}

func baseURL(endpoint appconfig.Endpoint) string {
	return strings.TrimRight(strings.TrimSpace(endpoint.URL), "/")
}

func setAuth(req *http.Request, endpoint appconfig.Endpoint) {
	if key := strings.TrimSpace(endpoint.APIKey); key != "" && key != "none" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}
