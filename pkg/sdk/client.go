// Package matchrank is a thin client for the matchrank HTTP API.
package matchrank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to a matchrank server.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Document is one candidate document to ingest.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	SourceRef string    `json:"source_ref,omitempty"`
}

// IngestResult summarizes an ingestion batch.
type IngestResult struct {
	Ingested int `json:"ingested"`
	Embedded int `json:"embedded"`
	Pending  int `json:"pending"`
}

// Match is one ranked result.
type Match struct {
	DocumentID   string  `json:"document_id"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	LexicalScore float64 `json:"lexical_score,omitempty"`
}

// Ranking is the reply to a rank request. Mode is "hybrid" or "lexical".
type Ranking struct {
	Mode    string  `json:"mode"`
	Results []Match `json:"results"`
}

// ChatAnswer is the reply to a chat request.
type ChatAnswer struct {
	Answer  string  `json:"answer"`
	Mode    string  `json:"mode"`
	Results []Match `json:"results"`
}

// Health is the server health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// IngestDocuments uploads a batch of documents into a scope.
func (c *Client) IngestDocuments(ctx context.Context, scope string, docs []Document) (IngestResult, error) {
	var out IngestResult
	path := "/v1/scopes/" + url.PathEscape(scope) + "/documents"
	err := c.do(ctx, http.MethodPost, path, map[string]any{"documents": docs}, &out)
	return out, err
}

// DeleteDocument removes one document from a scope.
func (c *Client) DeleteDocument(ctx context.Context, scope, id string) error {
	path := "/v1/scopes/" + url.PathEscape(scope) + "/documents/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Rank scores a scope's documents against a query. count <= 0 lets the
// server pick (explicit phrasing like "top 3" in the query still applies).
func (c *Client) Rank(ctx context.Context, scopeKey, query string, count int) (Ranking, error) {
	var out Ranking
	body := map[string]any{"scope_key": scopeKey, "query": query}
	if count > 0 {
		body["count"] = count
	}
	err := c.do(ctx, http.MethodPost, "/v1/rank", body, &out)
	return out, err
}

// Chat asks a free-text question about a scope's candidates.
func (c *Client) Chat(ctx context.Context, scopeKey, question string) (ChatAnswer, error) {
	var out ChatAnswer
	body := map[string]any{"scope_key": scopeKey, "question": question}
	err := c.do(ctx, http.MethodPost, "/v1/chat", body, &out)
	return out, err
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("matchrank: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("matchrank: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("matchrank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiErrorFrom(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("matchrank: decode response: %w", err)
		}
	}
	return nil
}
