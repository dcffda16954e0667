// internal/providers/openai.go
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider backed by the OpenAI chat completions
// API. Extra request options (base URL overrides in tests) are passed through
// to the SDK client.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) AIProvider {
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // retries are the orchestrator's job
	}, opts...)
	client := openai.NewClient(clientOpts...)

	return &openAIProvider{client: &client}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Execute(ctx context.Context, queryText, model string) (*Result, error) {
	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(queryText),
		},
		Model: openai.ChatModel(model),
	})
	if err != nil {
		return nil, p.wrapError(err)
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

func (p *openAIProvider) wrapError(err error) *ProviderError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return newProviderError(p.Name(), classifyStatus(apiErr.StatusCode), err)
	}
	return newProviderError(p.Name(), classifyTransportErr(err), err)
}
