package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/tokbench/internal/conversation"
	"github.com/mwiater/tokbench/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgenticSessionShape(t *testing.T) {
	def := AgenticSession()
	require.Len(t, def.Turns, 10)
	for i, turn := range def.Turns {
		if i == 5 {
			assert.False(t, turn.ExpectToolCall, "turn 6 is analysis only")
			continue
		}
		assert.True(t, turn.ExpectToolCall, "turn %d", i+1)
		assert.NotEmpty(t, turn.ToolResult, "turn %d", i+1)
	}
	assert.Contains(t, def.Turns[4].ToolResult, "package main")
	assert.Len(t, def.Tools, 4)
}

func TestToolTaskCorrect(t *testing.T) {
	p := ThinkingTask()
	assert.True(t, p.Correct([]stream.ToolCallRequest{{Name: "read_file", Arguments: `{"path":"/etc/hostname"}`}}))
	assert.False(t, p.Correct([]stream.ToolCallRequest{{Name: "run_command", Arguments: `{"command":"cat /etc/hostname"}`}}))
	assert.False(t, p.Correct([]stream.ToolCallRequest{{Name: "read_file", Arguments: `{"path":"/etc/os-release"}`}}))
	assert.False(t, p.Correct(nil))
}

func TestToolsUnknownName(t *testing.T) {
	_, err := Tools(ToolReadFile, "format_disk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format_disk")
}

func TestFillerPromptLength(t *testing.T) {
	assert.Len(t, FillerPrompt(512), 2048)
	assert.Empty(t, FillerPrompt(0))
	msgs := ContextMessages(100)
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasSuffix(msgs[1].Content, "Please continue writing naturally:"))
}

func TestParseYAMLDefaultsExpectation(t *testing.T) {
	doc := `
name: smoke
systemPrompt: be brief
turns:
  - user: read /etc/hostname
    toolResult: box1
  - user: summarize
  - user: say hi without tools
    expectToolCall: false
    toolResult: unused
`
	def, err := Parse([]byte(doc), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "smoke", def.Name)
	assert.Equal(t, "be brief", def.SystemPrompt)
	require.Len(t, def.Turns, 3)
	assert.True(t, def.Turns[0].ExpectToolCall)
	assert.Equal(t, "box1", def.Turns[0].ToolResult)
	assert.False(t, def.Turns[1].ExpectToolCall)
	assert.False(t, def.Turns[2].ExpectToolCall)
	assert.Len(t, def.Tools, len(AgenticSession().Tools), "missing tools fall back to the agentic set")
}

func TestParseTOMLWithTools(t *testing.T) {
	doc := `
name = "weather"

[[tools]]
name = "get_weather"
description = "Get weather for a city"

[tools.parameters]
type = "object"
required = ["city"]

[tools.parameters.properties.city]
type = "string"

[[turns]]
user = "Weather in Oslo?"
expectToolCall = true
toolResult = "4C and snowing"
`
	def, err := Parse([]byte(doc), ".toml")
	require.NoError(t, err)
	require.Len(t, def.Tools, 1)
	assert.Equal(t, "get_weather", def.Tools[0].Name)
	require.Len(t, def.Turns, 1)
	assert.True(t, def.Turns[0].ExpectToolCall)
}

func TestParseRejectsEmptyTurns(t *testing.T) {
	_, err := Parse([]byte(`{"name":"nothing","turns":[]}`), ".json")
	assert.True(t, errors.Is(err, conversation.ErrEmptyScenario))

	_, err = Parse([]byte(`{"name":"nothing"}`), ".json")
	assert.True(t, errors.Is(err, conversation.ErrEmptyScenario))
}

func TestParseRejectsInvalidDocument(t *testing.T) {
	_, err := Parse([]byte(`{"turns":[{"user":"hi","expectToolCall":"yes"}]}`), ".json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")

	_, err = Parse([]byte(`{"turns":[{"prompt":"hi"}]}`), ".json")
	require.Error(t, err)
}

func TestParseRejectsBadToolSchema(t *testing.T) {
	doc := `{"tools":[{"name":"broken","parameters":{"type":12}}],"turns":[{"user":"hi"}]}`
	_, err := Parse([]byte(doc), ".json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("turns"), ".ini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoadFileNamesFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nightly.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"turns":[{"user":"hello"}]}`), 0o644))

	def, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", def.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
