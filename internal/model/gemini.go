package model

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/cyberstrike/backend/internal/config"
)

var _ adkmodel.LLM = (*GeminiLLM)(nil)

// GeminiLLM uses the google.golang.org/genai Go SDK directly for text
// generation. The client is created lazily on first use so construction never
// needs a context or network access.
type GeminiLLM struct {
	apiKey  string
	name    string
	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiLLM creates a native Gemini text adapter for the given provider name.
func NewGeminiLLM(providerName, apiKey string) *GeminiLLM {
	return &GeminiLLM{
		name:   providerName,
		apiKey: apiKey,
	}
}

func (g *GeminiLLM) Name() string { return g.name }

func (g *GeminiLLM) ensureClient(ctx context.Context) error {
	g.once.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.initErr
}

func (g *GeminiLLM) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		if err := g.ensureClient(ctx); err != nil {
			yield(nil, fmt.Errorf("gemini: client init failed: %w", err))
			return
		}

		cfg := req.Config
		if cfg == nil {
			cfg = &genai.GenerateContentConfig{}
		}

		slog.Debug("gemini: calling model", "model", req.Model)

		if stream {
			for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, req.Contents, cfg) {
				if err != nil {
					yield(nil, fmt.Errorf("gemini: %w", err))
					return
				}
				if !yield(convertGeminiResponse(resp), nil) {
					return
				}
			}
		} else {
			resp, err := g.client.Models.GenerateContent(ctx, req.Model, req.Contents, cfg)
			if err != nil {
				yield(nil, fmt.Errorf("gemini: %w", err))
				return
			}
			yield(convertGeminiResponse(resp), nil)
		}
	}
}

func init() {
	RegisterProvider("gemini", func(name string, cfg config.ProviderConfig) adkmodel.LLM {
		return NewGeminiLLM(name, cfg.APIKey)
	})
}

func convertGeminiResponse(resp *genai.GenerateContentResponse) *adkmodel.LLMResponse {
	if resp == nil || len(resp.Candidates) == 0 {
		return &adkmodel.LLMResponse{TurnComplete: true}
	}
	c := resp.Candidates[0]
	turnComplete := c.FinishReason != "" && c.FinishReason != genai.FinishReasonUnspecified
	r := &adkmodel.LLMResponse{
		Content:      c.Content,
		TurnComplete: turnComplete,
		FinishReason: c.FinishReason,
	}
	if resp.UsageMetadata != nil {
		r.UsageMetadata = resp.UsageMetadata
	}
	return r
}
