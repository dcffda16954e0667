// internal/providers/gemini.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiProvider calls the Gemini generateContent REST API directly. Google's
// Go SDK pulls in a large dependency tree for what is a single endpoint here.
type geminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiProvider creates a provider backed by the Gemini REST API.
func NewGeminiProvider(apiKey string) AIProvider {
	return &geminiProvider{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// NewGeminiProviderWithBaseURL is used by tests to point the adapter at a
// mock server.
func NewGeminiProviderWithBaseURL(apiKey, baseURL string) AIProvider {
	p := NewGeminiProvider(apiKey).(*geminiProvider)
	p.baseURL = strings.TrimSuffix(baseURL, "/")
	return p
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *geminiProvider) Execute(ctx context.Context, queryText, model string) (*Result, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: queryText}},
		}},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, newProviderError(p.Name(), ErrKindUnknown, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, newProviderError(p.Name(), ErrKindUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, newProviderError(p.Name(), classifyTransportErr(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, newProviderError(p.Name(), classifyStatus(resp.StatusCode),
			fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, newProviderError(p.Name(), ErrKindUnknown, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, newProviderError(p.Name(), ErrKindUnknown, fmt.Errorf("no candidates in response"))
	}

	var textParts []string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		textParts = append(textParts, part.Text)
	}

	return &Result{
		Text:         strings.Join(textParts, ""),
		InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}
