// Package analysis is the boundary to the answering LLM. Every endpoint hands
// a document's extracted text plus a task-specific prompt to the model and
// normalizes whatever comes back into one typed result per analysis.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/cyberstrike/backend/internal/llmutil"
)

// ErrAnswerGeneration reports that the model failed to produce a usable
// answer. Callers surface it as a service-level failure; there are no partial
// answers.
var ErrAnswerGeneration = errors.New("answer generation failed")

// maxDocChars bounds how much document text is sent per request. Security
// audits run long; anything past this is cut, not summarized.
const maxDocChars = 100_000

// Message is one turn of conversation history supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analyst answers questions and runs canned analyses over extracted document
// text using a configured LLM.
type Analyst struct {
	llm   adkmodel.LLM
	model string
}

// New creates an Analyst that uses the given LLM and model name.
func New(llm adkmodel.LLM, model string) *Analyst {
	return &Analyst{llm: llm, model: model}
}

const chatSystemPrompt = `You are a security analyst assistant. Answer questions about the security audit document provided below. Be specific: cite sections, hosts, findings, and severities from the document where relevant. If the document does not contain the answer, say so instead of guessing.

Document:
%s`

// Chat answers a free-form question about the document, continuing the given
// conversation history.
func (a *Analyst) Chat(ctx context.Context, docText, query string, history []Message) (string, error) {
	system := fmt.Sprintf(chatSystemPrompt, clampText(docText))

	var contents []*genai.Content
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" || m.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(query, genai.RoleUser))

	return a.generate(ctx, system, contents)
}

const summarizePrompt = `Summarize the following security audit document in markdown. Cover: scope of the audit, overall security posture, the most important findings with their severity, and recommended next steps. Keep it under 400 words.

Document:
%s`

// Summarize produces a markdown summary of the document.
func (a *Analyst) Summarize(ctx context.Context, docText string) (string, error) {
	prompt := fmt.Sprintf(summarizePrompt, clampText(docText))
	return a.generate(ctx, "", []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)})
}

// generate runs one non-streaming model call and normalizes the reply to a
// plain string. Every model failure, and an empty reply, maps to
// ErrAnswerGeneration.
func (a *Analyst) generate(ctx context.Context, system string, contents []*genai.Content) (string, error) {
	req := &adkmodel.LLMRequest{
		Model:    a.model,
		Contents: contents,
	}
	if system != "" {
		req.Config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	var text string
	for resp, err := range a.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
		}
		text += llmutil.ExtractText(resp)
	}
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", ErrAnswerGeneration)
	}
	return text, nil
}

// generateJSON runs a model call whose prompt demands a JSON object, strips
// markdown fences, and decodes into out.
func (a *Analyst) generateJSON(ctx context.Context, prompt string, out any) error {
	raw, err := a.generate(ctx, "", []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)})
	if err != nil {
		return err
	}
	cleaned, err := llmutil.StripMarkdownJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: malformed model JSON: %v", ErrAnswerGeneration, err)
	}
	return nil
}

func clampText(s string) string {
	if len(s) <= maxDocChars {
		return s
	}
	return s[:maxDocChars]
}
