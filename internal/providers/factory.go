// internal/providers/factory.go
package providers

import (
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
)

// SupportedProviders lists every provider name the factory accepts.
var SupportedProviders = []string{"openai", "anthropic", "gemini", "perplexity"}

// NewProvider creates the adapter for the named provider. The name is
// validated at run submission, so an unknown name here is a configuration
// error, not a runtime one.
func NewProvider(providerName string, cfg *config.Config) (AIProvider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey), nil

	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey), nil

	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey), nil

	case "perplexity":
		if cfg.PerplexityAPIKey == "" {
			return nil, fmt.Errorf("PERPLEXITY_API_KEY is not set")
		}
		return NewPerplexityProvider(cfg.PerplexityAPIKey), nil
	}

	return nil, fmt.Errorf("unsupported provider: %s", providerName)
}

// IsSupported reports whether providerName names a known provider.
func IsSupported(providerName string) bool {
	lower := strings.ToLower(providerName)
	for _, name := range SupportedProviders {
		if name == lower {
			return true
		}
	}
	return false
}
