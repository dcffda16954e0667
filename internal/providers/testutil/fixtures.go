// internal/providers/testutil/fixtures.go
package testutil

import "github.com/AI-Template-SDK/senso-visibility/internal/config"

// SampleConfig returns a config with every provider key populated, for
// factory and orchestrator tests.
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "test-openai-key",
		AnthropicAPIKey:  "test-anthropic-key",
		GeminiAPIKey:     "test-gemini-key",
		PerplexityAPIKey: "test-perplexity-key",
	}
}
