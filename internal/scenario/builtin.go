// internal/scenario/builtin.go
package scenario

import (
	_ "embed"
	"strings"

	"github.com/mwiater/tokbench/internal/conversation"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/stream"
)

//go:embed fixtures/nodewatch.go.txt
var nodewatchSource string

const (
	fakeHostname  = "dgxnode1"
	fakeOSRelease = `NAME="Ubuntu"
VERSION="22.04.3 LTS (Jammy Jellyfish)"
ID=ubuntu
ID_LIKE=debian
PRETTY_NAME="Ubuntu 22.04.3 LTS"
VERSION_ID="22.04"
VERSION_CODENAME=jammy
UBUNTU_CODENAME=jammy`
)

// Definition is a scripted multi-turn session.
type Definition struct {
	Name         string                     `json:"name"`
	SystemPrompt string                     `json:"systemPrompt"`
	Tools        []providers.ToolDefinition `json:"tools"`
	Turns        []conversation.Turn        `json:"turns"`
}

// AgenticSession is the built-in ten-turn coding session. Turn 6 asks for
// analysis only; every other turn expects a tool call answered with a canned result.
func AgenticSession() Definition {
	tool := func(user, result string) conversation.Turn {
		return conversation.Turn{User: user, ExpectToolCall: true, ToolResult: result}
	}
	return Definition{
		Name:         "agentic",
		SystemPrompt: "You are a helpful coding assistant. Use the provided tools to accomplish tasks.",
		Tools:        mustTools(ToolReadFile, ToolWriteFile, ToolRunCommand, ToolListDirectory),
		Turns: []conversation.Turn{
			tool("Read the file /etc/hostname", fakeHostname),
			tool("Good. Now read /etc/os-release to check the OS version.", fakeOSRelease),
			tool("Write a Go program called sysinfo.go that prints the hostname and OS name.", "File written successfully: sysinfo.go"),
			tool("Run it: go run sysinfo.go", "Hostname: dgxnode1\nOS: Ubuntu 22.04.3 LTS"),
			tool("Now read the monitoring program at /home/ops/nodewatch/main.go", nodewatchSource),
			{User: "Analyze that monitoring program. Which packages does it use and what could be improved?"},
			tool("Write an improved version with per-GPU goroutines, structured logging and better error handling.", "File written successfully: nodewatch_v2.go"),
			tool("Run the improved program: go run nodewatch_v2.go -interval 10s", "nodewatch v2 started\n{\"hostname\": \"dgxnode1\", \"gpus\": [{\"temperature_c\": 45, \"utilization_pct\": 23}]}"),
			tool("List the current directory to see all files we created.", "sysinfo.go\nnodewatch_v2.go\ngo.mod"),
			tool("Great work! Now create a README.md documenting both programs.", "File written successfully: README.md"),
		},
	}
}

// ToolTask is a single tool-calling request checked for one expected call.
type ToolTask struct {
	SystemPrompt     string
	Prompt           string
	Tools            []providers.ToolDefinition
	ExpectTool       string
	ArgumentContains string
}

// Correct reports whether any call names ExpectTool with arguments containing ArgumentContains.
func (p ToolTask) Correct(calls []stream.ToolCallRequest) bool {
	for _, call := range calls {
		if call.Name == p.ExpectTool && strings.Contains(call.Arguments, p.ArgumentContains) {
			return true
		}
	}
	return false
}

// ThinkingTask asks for a multi-step task whose first step must be reading /etc/hostname.
func ThinkingTask() ToolTask {
	return ToolTask{
		SystemPrompt: "You are a helpful coding assistant.",
		Prompt: `You have access to tools for reading files and running commands.

Task: Read the file /etc/hostname, then write a Go program called sysinfo.go that prints the hostname and the current date. After writing it, run the program and show me the output.

Start by reading /etc/hostname.`,
		Tools:            mustTools(ToolReadFile, ToolWriteFile, ToolRunCommand),
		ExpectTool:       ToolReadFile,
		ArgumentContains: "hostname",
	}
}

// ABPrompts is the prompt set replayed for each arm of an A/B comparison.
func ABPrompts() []string {
	return []string{
		"Explain quantum computing in simple terms.",
		"Write a Go function that returns the nth Fibonacci number efficiently.",
		"What are the key differences between TCP and UDP?",
		"Summarize the history of artificial intelligence in 200 words.",
	}
}

// ToolCheck is one tool-calling smoke test.
type ToolCheck struct {
	Name   string
	Prompt string
	Stream bool
}

// ToolCheckTools are offered to every smoke test.
func ToolCheckTools() []providers.ToolDefinition {
	return mustTools(ToolReadFile, ToolListDirectory, ToolGetWeather)
}

// ToolChecks returns the smoke tests in execution order.
func ToolChecks() []ToolCheck {
	return []ToolCheck{
		{Name: "simple tool call with params", Prompt: "Read the file /etc/hostname"},
		{Name: "no-param tool call", Prompt: "List the current directory"},
		{Name: "multi-param tool call", Prompt: "What's the weather in Istanbul in celsius?"},
		{Name: "streaming tool call", Prompt: "Read the file /etc/hostname", Stream: true},
	}
}

const fillerBlock = "The quick brown fox jumps over the lazy dog. "

// FillerPrompt returns approximately targetTokens tokens of filler text,
// assuming four characters per token.
func FillerPrompt(targetTokens int) string {
	if targetTokens <= 0 {
		return ""
	}
	chars := targetTokens * 4
	repeats := chars/len(fillerBlock) + 1
	return strings.Repeat(fillerBlock, repeats)[:chars]
}

// ContextMessages builds the continuation request used by context sweeps.
func ContextMessages(targetTokens int) []providers.ChatMessage {
	return []providers.ChatMessage{
		{Role: providers.RoleSystem, Content: "You are a helpful assistant. Continue the text naturally."},
		{Role: providers.RoleUser, Content: FillerPrompt(targetTokens) + "\n\nPlease continue writing naturally:"},
	}
}
