package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/cyberstrike/backend/internal/config"
)

var _ adkmodel.LLM = (*OpenAILLM)(nil)

const openaiDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIOption configures an OpenAILLM instance.
type OpenAIOption func(*OpenAILLM)

// WithOpenAIBaseURL sets a custom base URL for the API endpoint.
// This is useful for OpenAI-compatible APIs like Ollama and LM Studio.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAILLM) {
		o.baseURL = url
	}
}

// WithOpenAIName sets a custom name for the LLM instance.
func WithOpenAIName(name string) OpenAIOption {
	return func(o *OpenAILLM) {
		o.name = name
	}
}

// OpenAILLM implements the ADK model.LLM interface over the Chat Completions
// API. The analysis layer only sends text, so tool-call plumbing is omitted.
type OpenAILLM struct {
	apiKey  string
	baseURL string
	name    string
	client  *http.Client
}

// NewOpenAILLM creates a new OpenAI LLM adapter.
func NewOpenAILLM(apiKey string, opts ...OpenAIOption) *OpenAILLM {
	llm := &OpenAILLM{
		apiKey:  apiKey,
		baseURL: openaiDefaultBaseURL,
		name:    "openai",
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(llm)
	}
	return llm
}

// Name returns the configured name of this LLM (default "openai").
func (o *OpenAILLM) Name() string {
	return o.name
}

// GenerateContent sends a chat completion request and yields exactly one
// LLMResponse. Streaming is not supported on this path; the stream flag is
// ignored.
func (o *OpenAILLM) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		body, err := o.buildRequestBody(req)
		if err != nil {
			yield(nil, fmt.Errorf("openai: failed to build request: %w", err))
			return
		}

		encoded, err := json.Marshal(body)
		if err != nil {
			yield(nil, fmt.Errorf("openai: failed to marshal request: %w", err))
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(encoded))
		if err != nil {
			yield(nil, fmt.Errorf("openai: failed to create HTTP request: %w", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if o.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
		}

		httpResp, err := o.client.Do(httpReq)
		if err != nil {
			yield(nil, fmt.Errorf("openai: HTTP request failed: %w", err))
			return
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			yield(nil, fmt.Errorf("openai: failed to read response body: %w", err))
			return
		}
		if httpResp.StatusCode != http.StatusOK {
			yield(nil, fmt.Errorf("openai: API returned status %d: %s", httpResp.StatusCode, string(respBody)))
			return
		}

		var apiResp openaiChatResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			yield(nil, fmt.Errorf("openai: failed to unmarshal response: %w", err))
			return
		}

		llmResp, err := o.convertResponse(&apiResp)
		if err != nil {
			yield(nil, fmt.Errorf("openai: %w", err))
			return
		}
		yield(llmResp, nil)
	}
}

// buildRequestBody converts an LLMRequest into a chat completions request body.
func (o *OpenAILLM) buildRequestBody(req *adkmodel.LLMRequest) (map[string]any, error) {
	body := map[string]any{
		"model":  req.Model,
		"stream": false,
	}

	var messages []map[string]any
	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := extractText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, map[string]any{
				"role":    "system",
				"content": text,
			})
		}
	}
	for _, content := range req.Contents {
		text := extractText(content)
		if text == "" {
			continue
		}
		messages = append(messages, map[string]any{
			"role":    openaiRole(content.Role),
			"content": text,
		})
	}
	body["messages"] = messages

	if req.Config != nil {
		if req.Config.Temperature != nil {
			body["temperature"] = *req.Config.Temperature
		}
		if req.Config.TopP != nil {
			body["top_p"] = *req.Config.TopP
		}
		if req.Config.MaxOutputTokens > 0 {
			body["max_tokens"] = req.Config.MaxOutputTokens
		}
		if len(req.Config.StopSequences) > 0 {
			body["stop"] = req.Config.StopSequences
		}
	}
	return body, nil
}

// convertResponse converts an OpenAI chat response to an ADK LLMResponse.
func (o *OpenAILLM) convertResponse(resp *openaiChatResponse) (*adkmodel.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	choice := resp.Choices[0]
	content := &genai.Content{
		Role: genai.RoleModel,
	}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, genai.NewPartFromText(choice.Message.Content))
	}
	return &adkmodel.LLMResponse{
		Content:      content,
		TurnComplete: true,
	}, nil
}

// extractText concatenates all text parts from a Content.
func extractText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var text string
	for i, part := range content.Parts {
		if part.Text != "" {
			if i > 0 && text != "" {
				text += "\n"
			}
			text += part.Text
		}
	}
	return text
}

// openaiRole converts a genai role string to an OpenAI role string.
func openaiRole(role string) string {
	switch role {
	case genai.RoleModel:
		return "assistant"
	case genai.RoleUser:
		return "user"
	default:
		return role
	}
}

func init() {
	RegisterProvider("openai", func(name string, cfg config.ProviderConfig) adkmodel.LLM {
		opts := []OpenAIOption{WithOpenAIName(name)}
		if cfg.URL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.URL))
		}
		return NewOpenAILLM(cfg.APIKey, opts...)
	})
}

// --- OpenAI API types (self-contained, not shared) ---

type openaiChatResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
