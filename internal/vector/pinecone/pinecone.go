// Package pinecone implements the vector.Index capability against the
// Pinecone data-plane REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/vector"
)

// DefaultUpsertBatch is the transport batch size for upserts. Batch
// boundaries are invisible to callers.
const DefaultUpsertBatch = 100

// Client talks to one Pinecone index host.
type Client struct {
	apiKey      string
	host        string
	upsertBatch int
	httpClient  *http.Client
}

// New creates a Pinecone index client. host is the index's data-plane host;
// a missing scheme defaults to https.
func New(apiKey, host string, upsertBatch int, timeout time.Duration) *Client {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if upsertBatch <= 0 {
		upsertBatch = DefaultUpsertBatch
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		host:        strings.TrimRight(host, "/"),
		upsertBatch: upsertBatch,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// post sends one JSON request to the index host and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pinecone returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Upsert writes every item into the namespace, batched for transport
// efficiency only.
func (c *Client) Upsert(ctx context.Context, namespace string, items []vector.Item) error {
	for start := 0; start < len(items); start += c.upsertBatch {
		end := start + c.upsertBatch
		if end > len(items) {
			end = len(items)
		}
		body := map[string]interface{}{
			"vectors":   items[start:end],
			"namespace": namespace,
		}
		if err := c.post(ctx, "/vectors/upsert", body, nil); err != nil {
			return fmt.Errorf("upsert batch %d: %w", start/c.upsertBatch, err)
		}
	}
	return nil
}

// DeleteNamespace removes every vector in the namespace. A namespace that
// does not exist yet is not an error.
func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	body := map[string]interface{}{
		"deleteAll": true,
		"namespace": namespace,
	}
	err := c.post(ctx, "/vectors/delete", body, nil)
	if err != nil && strings.Contains(err.Error(), "404") {
		return nil
	}
	return err
}

// Query returns the topK nearest matches in the namespace with metadata.
func (c *Client) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]vector.Match, error) {
	body := map[string]interface{}{
		"vector":          vec,
		"topK":            topK,
		"includeMetadata": true,
		"namespace":       namespace,
	}
	var out struct {
		Matches []vector.Match `json:"matches"`
	}
	if err := c.post(ctx, "/query", body, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}
