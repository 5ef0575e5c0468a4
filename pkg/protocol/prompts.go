package protocol

import "encoding/json"

// Prompt describes a named prompt template
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one named argument of a prompt
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ListPromptsResult is the result of prompts/list
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams are the parameters of prompts/get
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is one rendered message of a prompt
type PromptMessage struct {
	Role    string      `json:"role"`
	Content ContentItem `json:"content"`
}

// GetPromptResult is the result of prompts/get
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// RawArguments decodes loosely typed prompt arguments, tolerating
// clients that send non-string values.
func RawArguments(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var typed map[string]string
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed
	}
	var loose map[string]interface{}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil
	}
	out := make(map[string]string, len(loose))
	for k, v := range loose {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
