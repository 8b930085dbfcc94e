package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// parseResponse mirrors the parser service's response contract
type parseResponse struct {
	Success  bool   `json:"success"`
	Markdown string `json:"markdown"`
	Error    string `json:"error"`
}

// ParserClient talks to the document parser service, which runs OCR and
// table extraction and hands back the document as Markdown.
type ParserClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewParserClient creates a client for the parser service at baseURL.
// OCR on scanned PDFs is slow, hence the generous timeout.
func NewParserClient(baseURL string) *ParserClient {
	return &ParserClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Parse uploads a document and returns its Markdown rendering
func (c *ParserClient) Parse(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

// ParseBase64 sends a document through the parser's base64 endpoint. Useful
// when the content already lives in memory as part of a JSON payload.
func (c *ParserClient) ParseBase64(ctx context.Context, filename string, content []byte) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"content":  base64.StdEncoding.EncodeToString(content),
		"filename": filename,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse-base64", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Health reports whether the parser service is reachable
func (c *ParserClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("parser service returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *ParserClient) do(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("parser service returned status %d", resp.StatusCode)
	}

	var result parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if !result.Success {
		return "", fmt.Errorf("parser service: %s", result.Error)
	}

	return result.Markdown, nil
}
