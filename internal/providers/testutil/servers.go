// internal/providers/testutil/servers.go
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// MockChatCompletionServer mimics the OpenAI-compatible chat completions
// endpoint used by both the OpenAI and Perplexity adapters.
type MockChatCompletionServer struct {
	Server *httptest.Server

	// ResponseText is returned in the single choice of each completion.
	ResponseText string
	InputTokens  int
	OutputTokens int

	// StatusCode, when nonzero, makes every request fail with that status.
	StatusCode int

	requests atomic.Int64
}

func NewMockChatCompletionServer() *MockChatCompletionServer {
	mock := &MockChatCompletionServer{
		ResponseText: "mock completion",
		InputTokens:  12,
		OutputTokens: 34,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		mock.requests.Add(1)
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if mock.StatusCode != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(mock.StatusCode)
			fmt.Fprintf(w, `{"error":{"message":"mock failure","type":"mock"}}`)
			return
		}

		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		response := map[string]interface{}{
			"id":     "chatcmpl-mock",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": mock.ResponseText,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     mock.InputTokens,
				"completion_tokens": mock.OutputTokens,
				"total_tokens":      mock.InputTokens + mock.OutputTokens,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockChatCompletionServer) URL() string {
	return m.Server.URL
}

func (m *MockChatCompletionServer) RequestCount() int {
	return int(m.requests.Load())
}

func (m *MockChatCompletionServer) Close() {
	m.Server.Close()
}

// MockAnthropicServer mimics the Anthropic messages endpoint.
type MockAnthropicServer struct {
	Server *httptest.Server

	ResponseText string
	InputTokens  int
	OutputTokens int
	StatusCode   int
}

func NewMockAnthropicServer() *MockAnthropicServer {
	mock := &MockAnthropicServer{
		ResponseText: "mock message",
		InputTokens:  12,
		OutputTokens: 34,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if mock.StatusCode != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(mock.StatusCode)
			fmt.Fprintf(w, `{"type":"error","error":{"type":"mock","message":"mock failure"}}`)
			return
		}

		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		response := map[string]interface{}{
			"id":    "msg-mock",
			"type":  "message",
			"role":  "assistant",
			"model": req.Model,
			"content": []map[string]interface{}{
				{"type": "text", "text": mock.ResponseText},
			},
			"stop_reason": "end_turn",
			"usage": map[string]interface{}{
				"input_tokens":  mock.InputTokens,
				"output_tokens": mock.OutputTokens,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockAnthropicServer) URL() string {
	return m.Server.URL
}

func (m *MockAnthropicServer) Close() {
	m.Server.Close()
}

// MockGeminiServer mimics the Gemini generateContent endpoint.
type MockGeminiServer struct {
	Server *httptest.Server

	ResponseText string
	InputTokens  int
	OutputTokens int
	StatusCode   int
}

func NewMockGeminiServer() *MockGeminiServer {
	mock := &MockGeminiServer{
		ResponseText: "mock candidate",
		InputTokens:  12,
		OutputTokens: 34,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		if mock.StatusCode != 0 {
			http.Error(w, `{"error":{"message":"mock failure"}}`, mock.StatusCode)
			return
		}

		response := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role": "model",
						"parts": []map[string]interface{}{
							{"text": mock.ResponseText},
						},
					},
				},
			},
			"usageMetadata": map[string]interface{}{
				"promptTokenCount":     mock.InputTokens,
				"candidatesTokenCount": mock.OutputTokens,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockGeminiServer) URL() string {
	return m.Server.URL
}

func (m *MockGeminiServer) Close() {
	m.Server.Close()
}
