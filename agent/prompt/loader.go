package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/assistant.txt
var assistantRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	// Assistant is an FString template; it expects a {today} variable.
	Assistant string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Assistant: strings.TrimSpace(assistantRaw),
	}
}
