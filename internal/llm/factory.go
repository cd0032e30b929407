package llm

import (
	"context"
	"fmt"
)

// Factory builds a Provider for one request from the caller's selection and
// credential.
type Factory func(ctx context.Context, sel Selection, credential string) (Provider, error)

// NewFactory returns a Factory that constructs SDK-backed providers using
// cfg for everything except the model and API key. Each decorator wraps the
// base provider in order, so the first one is innermost.
func NewFactory(cfg Config, decorators ...func(Provider, Selection) Provider) Factory {
	return func(ctx context.Context, sel Selection, credential string) (Provider, error) {
		if err := sel.Validate(); err != nil {
			return nil, err
		}

		var base Provider
		var err error

		switch sel.Provider {
		case ProviderClaude:
			c := cfg.Anthropic
			c.APIKey, c.Model, c.Timeout = credential, sel.Model, cfg.Timeout
			base, err = NewAnthropicProvider(c)
		case ProviderOpenAI:
			c := cfg.OpenAI
			c.APIKey, c.Model, c.Timeout = credential, sel.Model, cfg.Timeout
			base, err = NewOpenAIProvider(c)
		case ProviderGemini:
			c := cfg.Gemini
			c.APIKey, c.Model, c.Timeout = credential, sel.Model, cfg.Timeout
			base, err = NewGeminiProvider(ctx, c)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, sel.Provider)
		}
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", sel.Provider, err)
		}

		p := base
		for _, d := range decorators {
			p = d(p, sel)
		}
		return p, nil
	}
}
