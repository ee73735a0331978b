// internal/embedding/client.go
// Package embedding maps text to unit-length vectors via an OpenAI-compatible
// embeddings endpoint. The same client configuration must be used at index
// build time and at query time, so that all vectors share one embedding space.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/folioqa/folio/internal/logging"
)

// batchSize caps how many inputs are sent per request.
const batchSize = 64

// BackendError reports a failed or malformed response from the embedding backend.
type BackendError struct {
	Status string
	Detail string
}

func (e *BackendError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("embedding backend: %s", e.Detail)
	}
	return fmt.Sprintf("embedding backend: %s: %s", e.Status, e.Detail)
}

// Client requests embeddings for a fixed model from a single base URL.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	timeout time.Duration
}

// NewClient constructs an embeddings client.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Model returns the embedding model identifier this client is bound to.
func (c *Client) Model() string { return c.model }

// Embed returns the unit-length embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in input order, batching requests for throughput.
// Every returned vector is L2-normalized and all share one dimension.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &BackendError{Detail: fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), dim)}
		}
		normalized, err := normalize(v)
		if err != nil {
			return nil, err
		}
		vectors[i] = normalized
	}
	return vectors, nil
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) embedRequest(ctx context.Context, texts []string) ([][]float64, error) {
	payload := map[string]any{
		"model": c.model,
		"input": texts,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("marshal request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &BackendError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		logging.LogRequest("EMBED->FOLIO", c.baseURL, c.model, raw)
		return nil, &BackendError{Status: resp.Status, Detail: strings.TrimSpace(string(raw))}
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("parse response: %v", err)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &BackendError{Detail: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(parsed.Data))}
	}

	// The API may return items out of order; the index field is authoritative.
	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	vectors := make([][]float64, len(parsed.Data))
	for i, item := range parsed.Data {
		if len(item.Embedding) == 0 {
			return nil, &BackendError{Detail: fmt.Sprintf("embedding %d is empty", i)}
		}
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

func normalize(v []float64) ([]float64, error) {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, &BackendError{Detail: "embedding has zero norm"}
	}
	out := make([]float64, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out, nil
}
