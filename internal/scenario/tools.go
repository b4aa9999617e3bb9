// internal/scenario/tools.go
package scenario

import (
	"fmt"

	"github.com/mwiater/tokbench/internal/providers"
)

// Tool names used by the built-in scenarios.
const (
	ToolReadFile      = "read_file"
	ToolWriteFile     = "write_file"
	ToolRunCommand    = "run_command"
	ToolListDirectory = "list_directory"
	ToolGetWeather    = "get_weather"
)

func stringProp(description string) map[string]any {
	prop := map[string]any{"type": "string"}
	if description != "" {
		prop["description"] = description
	}
	return prop
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Catalog returns every built-in tool definition keyed by name.
func Catalog() map[string]providers.ToolDefinition {
	return map[string]providers.ToolDefinition{
		ToolReadFile: {
			Name:        ToolReadFile,
			Description: "Read contents of a file",
			Parameters:  objectSchema(map[string]any{"path": stringProp("File path to read")}, "path"),
		},
		ToolWriteFile: {
			Name:        ToolWriteFile,
			Description: "Write content to a file",
			Parameters: objectSchema(map[string]any{
				"path":    stringProp("File path"),
				"content": stringProp("File content"),
			}, "path", "content"),
		},
		ToolRunCommand: {
			Name:        ToolRunCommand,
			Description: "Run a shell command",
			Parameters:  objectSchema(map[string]any{"command": stringProp("Shell command")}, "command"),
		},
		ToolListDirectory: {
			Name:        ToolListDirectory,
			Description: "List contents of a directory",
			Parameters:  objectSchema(nil),
		},
		ToolGetWeather: {
			Name:        ToolGetWeather,
			Description: "Get weather for a city",
			Parameters: objectSchema(map[string]any{
				"city":  stringProp("City name"),
				"units": map[string]any{"type": "string", "enum": []string{"celsius", "fahrenheit"}},
			}, "city"),
		},
	}
}

// Tools resolves names against the catalog, preserving order.
func Tools(names ...string) ([]providers.ToolDefinition, error) {
	catalog := Catalog()
	out := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		tool, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("scenario: unknown tool %q", name)
		}
		out = append(out, tool)
	}
	return out, nil
}

func mustTools(names ...string) []providers.ToolDefinition {
	tools, err := Tools(names...)
	if err != nil {
		panic(err)
	}
	return tools
}
