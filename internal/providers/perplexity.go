// internal/providers/perplexity.go
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const perplexityBaseURL = "https://api.perplexity.ai"

// Perplexity exposes an OpenAI-compatible chat completions endpoint, so the
// adapter reuses the OpenAI SDK pointed at the Perplexity base URL.
type perplexityProvider struct {
	client *openai.Client
}

// NewPerplexityProvider creates a provider backed by the Perplexity API.
func NewPerplexityProvider(apiKey string, opts ...option.RequestOption) AIProvider {
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(perplexityBaseURL),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(clientOpts...)

	return &perplexityProvider{client: &client}
}

func (p *perplexityProvider) Name() string {
	return "perplexity"
}

func (p *perplexityProvider) Execute(ctx context.Context, queryText, model string) (*Result, error) {
	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(queryText),
		},
		Model: openai.ChatModel(model),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, newProviderError(p.Name(), classifyStatus(apiErr.StatusCode), err)
		}
		return nil, newProviderError(p.Name(), classifyTransportErr(err), err)
	}
	if len(response.Choices) == 0 {
		return nil, newProviderError(p.Name(), ErrKindUnknown, fmt.Errorf("empty choices in completion %s", response.ID))
	}

	return &Result{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
	}, nil
}
