// Package prompts holds the embedded prompt templates for the proposal and
// pricing scenarios.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"presales-mvp/internal/common/llm"
)

//go:embed prompts.yaml
var embeddedPrompts []byte

const (
	placeholderBrief = "{brief}"
	placeholderKMRaw = "{km_raw}"
)

// Template is a system prompt plus a user message template.
type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type Set struct {
	Proposal Template `yaml:"proposal"`
	Pricing  Template `yaml:"pricing"`
}

// Load parses the embedded templates.
func Load() (*Set, error) {
	return Parse(embeddedPrompts)
}

// MustLoad is Load for package initialization paths.
func MustLoad() *Set {
	set, err := Load()
	if err != nil {
		panic(err)
	}
	return set
}

// Parse decodes a template set from YAML and checks every template is usable.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	for name, tpl := range map[string]Template{"proposal": set.Proposal, "pricing": set.Pricing} {
		if strings.TrimSpace(tpl.System) == "" {
			return nil, fmt.Errorf("prompt %q: system prompt is empty", name)
		}
		if !strings.Contains(tpl.User, placeholderBrief) || !strings.Contains(tpl.User, placeholderKMRaw) {
			return nil, fmt.Errorf("prompt %q: user template must reference %s and %s", name, placeholderBrief, placeholderKMRaw)
		}
	}

	return &set, nil
}

// Render substitutes brief and evidence into the user template. Placeholders
// appearing inside the substituted values are left untouched.
func (t Template) Render(brief, kmRaw string) string {
	return strings.NewReplacer(placeholderBrief, brief, placeholderKMRaw, kmRaw).Replace(t.User)
}

// Messages returns the system and user message pair for one invocation.
func (t Template) Messages(brief, kmRaw string) []llm.Message {
	return []llm.Message{
		llm.SystemMessage(t.System),
		llm.UserMessage(t.Render(brief, kmRaw)),
	}
}
