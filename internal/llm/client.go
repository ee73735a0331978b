// internal/llm/client.go
// Package llm talks to an OpenAI-compatible chat-completion backend such as
// LM Studio or llama.cpp's server.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/folioqa/folio/internal/logging"
)

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BackendError reports a failed or malformed response from the generation
// backend. It always carries enough detail to show the user why the answer
// could not be produced.
type BackendError struct {
	Status string
	Detail string
}

func (e *BackendError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("generation backend: %s", e.Detail)
	}
	return fmt.Sprintf("generation backend: %s: %s", e.Status, e.Detail)
}

// ChatRequest describes one generation call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Client issues chat-completion requests against a single backend base URL.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewClient constructs a Client for the given base URL. The timeout applies
// to every request, including the full streaming read.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat performs a blocking chat-completion call and returns the answer text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.postCompletions(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Detail: fmt.Sprintf("read response: %v", err)}
	}
	logging.LogRequest("LLM->FOLIO", c.baseURL, req.Model, body)

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &BackendError{Detail: fmt.Sprintf("parse response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &BackendError{Detail: "chat response contained no choices"}
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &BackendError{Detail: "chat response contained empty content"}
	}
	return content, nil
}

// Stream performs a streaming chat-completion call, invoking onDelta for each
// content fragment, and returns the accumulated answer text.
func (c *Client) Stream(ctx context.Context, req ChatRequest, onDelta func(string) error) (string, error) {
	resp, err := c.postCompletions(ctx, req, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", &BackendError{Detail: fmt.Sprintf("read stream: %v", err)}
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", &BackendError{Detail: fmt.Sprintf("parse stream chunk: %v", err)}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			content = chunk.Choices[0].Message.Content
		}
		if content == "" {
			continue
		}
		full.WriteString(content)
		if onDelta != nil {
			if err := onDelta(content); err != nil {
				return "", err
			}
		}
	}

	if strings.TrimSpace(full.String()) == "" {
		return "", &BackendError{Detail: "stream produced no content"}
	}
	return full.String(), nil
}

func (c *Client) postCompletions(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	payload := map[string]any{
		"model":       req.Model,
		"messages":    sanitizeMessages(req.Messages),
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("marshal request: %v", err)}
	}
	logging.LogRequest("FOLIO->LLM", c.baseURL, req.Model, body)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, &BackendError{Detail: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &BackendError{Detail: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		logging.LogRequest("LLM->FOLIO", c.baseURL, req.Model, raw)
		return nil, &BackendError{Status: resp.Status, Detail: strings.TrimSpace(string(raw))}
	}
	// The cancel is tied to the response body lifetime.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models returns the model ids served by the backend.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("create request: %v", err)}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &BackendError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Status: resp.Status, Detail: "/v1/models probe failed"}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("read response: %v", err)}
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &BackendError{Detail: fmt.Sprintf("parse /v1/models response: %v", err)}
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if strings.TrimSpace(m.ID) != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// Ping checks backend liveness via the models endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Models(ctx)
	return err
}

func sanitizeMessages(messages []Message) []Message {
	if len(messages) == 0 {
		return []Message{}
	}
	sanitized := make([]Message, 0, len(messages))
	for _, msg := range messages {
		role := strings.TrimSpace(msg.Role)
		content := strings.TrimSpace(msg.Content)
		if role == "" {
			role = RoleUser
		}
		if role != RoleAssistant && content == "" {
			continue
		}
		sanitized = append(sanitized, Message{Role: role, Content: content})
	}
	if len(sanitized) == 0 {
		return []Message{}
	}
	return sanitized
}
