package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/cyberstrike/backend/internal/config"
)

func TestOpenAILLM_Name(t *testing.T) {
	llm := NewOpenAILLM("test-key")
	if got := llm.Name(); got != "openai" {
		t.Errorf("Name() = %q, want %q", got, "openai")
	}
	named := NewOpenAILLM("test-key", WithOpenAIName("ollama"))
	if got := named.Name(); got != "ollama" {
		t.Errorf("Name() = %q, want %q", got, "ollama")
	}
}

func TestOpenAILLM_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		var reqBody map[string]any
		if err := json.Unmarshal(body, &reqBody); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if reqBody["model"] != "gpt-4o" {
			t.Errorf("model = %v", reqBody["model"])
		}

		messages, ok := reqBody["messages"].([]any)
		if !ok || len(messages) != 3 {
			t.Fatalf("expected 3 messages (system + user + assistant), got %v", reqBody["messages"])
		}
		sys := messages[0].(map[string]any)
		if sys["role"] != "system" {
			t.Errorf("first message role = %v", sys["role"])
		}
		last := messages[2].(map[string]any)
		if last["role"] != "assistant" {
			t.Errorf("model role not converted: %v", last["role"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "The audit covers 12 hosts."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	llm := NewOpenAILLM("test-key", WithOpenAIBaseURL(server.URL))
	req := &adkmodel.LLMRequest{
		Model: "gpt-4o",
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("You are a security analyst.", genai.RoleUser),
		},
		Contents: []*genai.Content{
			genai.NewContentFromText("What does the audit cover?", genai.RoleUser),
			genai.NewContentFromText("Let me check.", genai.RoleModel),
		},
	}

	var got *adkmodel.LLMResponse
	for resp, err := range llm.GenerateContent(context.Background(), req, false) {
		if err != nil {
			t.Fatalf("GenerateContent: %v", err)
		}
		got = resp
	}
	if got == nil || got.Content == nil || len(got.Content.Parts) == 0 {
		t.Fatal("empty response")
	}
	if got.Content.Parts[0].Text != "The audit covers 12 hosts." {
		t.Errorf("text = %q", got.Content.Parts[0].Text)
	}
}

func TestOpenAILLM_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	llm := NewOpenAILLM("k", WithOpenAIBaseURL(server.URL))
	req := &adkmodel.LLMRequest{
		Model:    "gpt-4o",
		Contents: []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)},
	}
	for _, err := range llm.GenerateContent(context.Background(), req, false) {
		if err == nil {
			t.Fatal("expected error for non-200 status")
		}
	}
}

func TestBuildLLM(t *testing.T) {
	if _, ok := BuildLLM("g", config.ProviderConfig{Type: "gemini", APIKey: "k"}); !ok {
		t.Error("gemini provider should be registered")
	}
	if _, ok := BuildLLM("local", config.ProviderConfig{Type: "lmstudio", URL: "http://localhost:1234/v1"}); !ok {
		t.Error("URL fallback should build an OpenAI-compat LLM")
	}
	if _, ok := BuildLLM("x", config.ProviderConfig{Type: "unknown"}); ok {
		t.Error("unknown type without URL should not build")
	}
}
