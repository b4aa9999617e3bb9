// internal/appconfig/modes.go
package appconfig

import (
	"fmt"
	"strings"
)

// ModeName identifies a reasoning-mode preset.
type ModeName string

const (
	ModeThinkingOff       ModeName = "thinking_off"
	ModeThinkingOn        ModeName = "thinking_on"
	ModeThinkingPreserved ModeName = "thinking_preserved"
)

// Mode is a named request variant whose ExtraBody is merged into the request payload.
type Mode struct {
	Name      string         `json:"name" mapstructure:"name"`
	ExtraBody map[string]any `json:"extraBody,omitempty" mapstructure:"extraBody"`
}

// ModeForName selects a reasoning preset by name.
// Behavior:
//   - empty string => thinking on (the server default)
//   - unknown string => error
func ModeForName(name string) (Mode, error) {
	n := normalizeModeName(name)

	switch ModeName(n) {
	case ModeThinkingOff:
		return ThinkingOffMode(), nil
	case ModeThinkingPreserved:
		return ThinkingPreservedMode(), nil
	case ModeThinkingOn, "":
		return ThinkingOnMode(), nil
	default:
		return Mode{}, fmt.Errorf("unknown thinking mode %q", name)
	}
}

// ThinkingOffMode disables the chat template's reasoning block.
func ThinkingOffMode() Mode {
	return Mode{
		Name: string(ModeThinkingOff),
		ExtraBody: map[string]any{
			"chat_template_kwargs": map[string]any{"enable_thinking": false},
		},
	}
}

// ThinkingOnMode sends no template arguments and leaves the server default in place.
func ThinkingOnMode() Mode {
	return Mode{Name: string(ModeThinkingOn), ExtraBody: map[string]any{}}
}

// ThinkingPreservedMode enables reasoning and keeps earlier reasoning blocks in the prompt.
func ThinkingPreservedMode() Mode {
	return Mode{
		Name: string(ModeThinkingPreserved),
		ExtraBody: map[string]any{
			"chat_template_kwargs": map[string]any{
				"enable_thinking": true,
				"clear_thinking":  false,
			},
		},
	}
}

// DefaultThinkingModes returns the three presets in reporting order.
func DefaultThinkingModes() []Mode {
	return []Mode{ThinkingOffMode(), ThinkingOnMode(), ThinkingPreservedMode()}
}

// ReasoningModes returns the configured modes, resolving entries that only
// name a preset, or the defaults when none are configured.
func (c Config) ReasoningModes() ([]Mode, error) {
	if len(c.ThinkingModes) == 0 {
		return DefaultThinkingModes(), nil
	}
	modes := make([]Mode, 0, len(c.ThinkingModes))
	for i, mode := range c.ThinkingModes {
		if strings.TrimSpace(mode.Name) == "" {
			return nil, fmt.Errorf("thinkingModes[%d]: name is required", i)
		}
		if mode.ExtraBody == nil {
			preset, err := ModeForName(mode.Name)
			if err != nil {
				return nil, fmt.Errorf("thinkingModes[%d]: %w", i, err)
			}
			mode.ExtraBody = preset.ExtraBody
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func normalizeModeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	n = strings.ReplaceAll(n, " ", "_")
	return n
}
