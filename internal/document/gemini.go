package document

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiExtractor extracts items with a Gemini model. It sits behind the
// local extractor in the chain and picks up documents the local model
// could not read.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

var _ Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates an extractor on an initialized genai client
func NewGeminiExtractor(client *genai.Client, model string) *GeminiExtractor {
	return &GeminiExtractor{client: client, model: model}
}

// Name returns the provider label
func (e *GeminiExtractor) Name() string { return "gemini" }

// Extract asks Gemini to read the receipt Markdown
func (e *GeminiExtractor) Extract(ctx context.Context, markdown string) (*DraftBill, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: extractionPrompt}}},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(markdown), config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	result, err := parseModelJSON(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	return result.toDraft()
}
