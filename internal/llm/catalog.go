package llm

import (
	"errors"
	"fmt"
)

// Provider identifiers as they appear in settings and on the wire.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	ErrUnknownProvider = errors.New("unsupported provider")
	ErrUnknownModel    = errors.New("model does not belong to provider")
)

// ProviderInfo describes a supported provider and its known model set.
type ProviderInfo struct {
	ID           string
	Label        string
	DefaultModel string

	// Models maps friendly names to API model IDs.
	Models map[string]string
}

// HasModel reports whether name is a friendly name or API ID known for p.
func (p ProviderInfo) HasModel(name string) bool {
	if _, ok := p.Models[name]; ok {
		return true
	}
	for _, id := range p.Models {
		if id == name {
			return true
		}
	}
	return false
}

var providerOrder = []string{ProviderClaude, ProviderOpenAI, ProviderGemini}

var catalog = map[string]ProviderInfo{
	ProviderClaude: {
		ID:           ProviderClaude,
		Label:        "Claude",
		DefaultModel: "claude-3-5-sonnet",
		Models:       anthropicModels,
	},
	ProviderOpenAI: {
		ID:           ProviderOpenAI,
		Label:        "OpenAI",
		DefaultModel: "gpt-4o-mini",
		Models:       openaiModels,
	},
	ProviderGemini: {
		ID:           ProviderGemini,
		Label:        "Gemini",
		DefaultModel: "gemini-flash",
		Models:       geminiModels,
	},
}

// LookupProvider returns the catalog entry for id.
func LookupProvider(id string) (ProviderInfo, bool) {
	p, ok := catalog[id]
	return p, ok
}

// Providers returns every supported provider in display order.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(providerOrder))
	for _, id := range providerOrder {
		out = append(out, catalog[id])
	}
	return out
}

// Selection is the active provider and a model scoped to it.
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// DefaultSelection is the initial provider/model pair.
func DefaultSelection() Selection {
	return Selection{Provider: ProviderClaude, Model: catalog[ProviderClaude].DefaultModel}
}

// Validate checks that the provider is supported and the model belongs to it.
func (s Selection) Validate() error {
	info, ok := catalog[s.Provider]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
	if !info.HasModel(s.Model) {
		return fmt.Errorf("%w: %q is not a %s model", ErrUnknownModel, s.Model, info.Label)
	}
	return nil
}

// Label returns the human name of the selected provider.
func (s Selection) Label() string {
	if info, ok := catalog[s.Provider]; ok {
		return info.Label
	}
	return s.Provider
}
