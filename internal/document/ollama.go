package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaExtractor extracts items with a locally hosted model through the
// Ollama chat API. It is the cheap, private first stop of the chain.
type OllamaExtractor struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Extractor = (*OllamaExtractor)(nil)

// NewOllamaExtractor creates an extractor backed by the Ollama server at
// baseURL running the given model.
func NewOllamaExtractor(baseURL, model string) *OllamaExtractor {
	return &OllamaExtractor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Name returns the provider label
func (e *OllamaExtractor) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Format   string          `json:"format"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Extract asks the local model to read the receipt Markdown
func (e *OllamaExtractor) Extract(ctx context.Context, markdown string) (*DraftBill, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model: e.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: markdown},
		},
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, err
	}

	result, err := parseModelJSON(chatResp.Message.Content)
	if err != nil {
		return nil, err
	}
	return result.toDraft()
}
