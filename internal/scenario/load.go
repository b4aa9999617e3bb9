// internal/scenario/load.go
// Package scenario supplies the scripted workloads: the built-in sessions,
// tool tasks and prompt sets, and user-supplied sessions loaded from YAML, TOML or
// JSON files.
package scenario

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mwiater/tokbench/internal/conversation"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/xeipuuv/gojsonschema"
	"go.yaml.in/yaml/v3"
)

//go:embed schema.json
var schemaDocument []byte

// fileTurn distinguishes an omitted expectToolCall from an explicit false.
type fileTurn struct {
	User           string  `json:"user"`
	ExpectToolCall *bool   `json:"expectToolCall"`
	ToolResult     *string `json:"toolResult"`
}

type fileDefinition struct {
	Name         string                     `json:"name"`
	SystemPrompt string                     `json:"systemPrompt"`
	Tools        []providers.ToolDefinition `json:"tools"`
	Turns        []fileTurn                 `json:"turns"`
}

// LoadFile reads a session definition. The format follows the file extension.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("scenario: read %q: %w", path, err)
	}
	def, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Definition{}, fmt.Errorf("scenario %q: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// Parse decodes, validates and normalizes a session document. ext selects the
// decoder (".yaml", ".yml", ".toml" or ".json").
//
// A turn that omits expectToolCall expects a tool call exactly when it carries
// a toolResult. A file without tools uses the built-in agentic tool set.
func Parse(data []byte, ext string) (Definition, error) {
	doc, err := decode(data, ext)
	if err != nil {
		return Definition{}, err
	}
	if turns, _ := doc["turns"].([]any); len(turns) == 0 {
		return Definition{}, conversation.ErrEmptyScenario
	}
	if err := validateDocument(doc); err != nil {
		return Definition{}, err
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return Definition{}, err
	}
	var raw fileDefinition
	if err := json.Unmarshal(normalized, &raw); err != nil {
		return Definition{}, err
	}

	def := Definition{
		Name:         raw.Name,
		SystemPrompt: raw.SystemPrompt,
		Tools:        raw.Tools,
	}
	if len(def.Tools) == 0 {
		def.Tools = AgenticSession().Tools
	}
	for i, tool := range def.Tools {
		if err := ValidateToolSchema(tool); err != nil {
			return Definition{}, fmt.Errorf("tools[%d]: %w", i, err)
		}
	}
	for _, t := range raw.Turns {
		turn := conversation.Turn{User: t.User}
		if t.ToolResult != nil {
			turn.ToolResult = *t.ToolResult
		}
		if t.ExpectToolCall != nil {
			turn.ExpectToolCall = *t.ExpectToolCall
		} else {
			turn.ExpectToolCall = t.ToolResult != nil
		}
		def.Turns = append(def.Turns, turn)
	}
	return def, nil
}

// ValidateToolSchema checks that a tool's parameters compile as a JSON Schema.
func ValidateToolSchema(tool providers.ToolDefinition) error {
	if len(tool.Parameters) == 0 {
		return nil
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Parameters)); err != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", tool.Name, err)
	}
	return nil
}

// decode converts any supported format into a generic JSON-like document.
func decode(data []byte, ext string) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", ext)
	}
	// Round-trip through JSON so nested values use JSON types throughout.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(normalized, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateDocument(doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaDocument),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.New("document failed validation: " + strings.Join(details, "; "))
}
