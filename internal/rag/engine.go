package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/llm"
	"github.com/folioqa/folio/internal/vectorstore"
)

// Embedder turns a query into a unit-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher answers k-nearest-neighbor queries over stored chunks.
type Searcher interface {
	Query(ctx context.Context, vector []float64, k int) ([]vectorstore.Result, error)
}

// Generator produces an answer from a message sequence.
type Generator interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Engine wires retrieval, context assembly, and generation into one
// request/response unit of work. It holds no per-request state: every call
// is a function of the question, the caller-supplied history, and the
// configuration, plus the embedding and generation network effects.
type Engine struct {
	cfg       *appconfig.Config
	embedder  Embedder
	searcher  Searcher
	generator Generator
}

// NewEngine constructs an Engine from an already-validated configuration.
func NewEngine(cfg *appconfig.Config, embedder Embedder, searcher Searcher, generator Generator) *Engine {
	return &Engine{cfg: cfg, embedder: embedder, searcher: searcher, generator: generator}
}

// Retrieve embeds the query and returns the top-k most similar chunks.
// k is clamped to at least 1.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]vectorstore.Result, error) {
	if k < 1 {
		k = 1
	}
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := e.searcher.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	return results, nil
}

// Prompt runs retrieval and context assembly for a question and returns the
// full message sequence to send to the generation backend, alongside the
// citations aligned with the context markers. Callers that stream the
// generation use this directly.
func (e *Engine) Prompt(ctx context.Context, question string, history []llm.Message) ([]llm.Message, []Citation, error) {
	results, err := e.Retrieve(ctx, question, e.cfg.TopK)
	if err != nil {
		return nil, nil, err
	}
	contextBlock, citations := BuildContext(results)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: e.systemPrompt(),
	})
	messages = append(messages, TrimHistory(history, e.cfg.HistoryLimit())...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer with citations.", contextBlock, question),
	})
	return messages, citations, nil
}

// Answer runs the full pipeline for one question: embed, retrieve, assemble
// context, generate. Any stage failure aborts the call; no partial answer is
// returned. Retrieving zero chunks is not a failure: generation still runs
// with an empty context and the system prompt tells the model to say so.
func (e *Engine) Answer(ctx context.Context, question string, history []llm.Message) (string, []Citation, error) {
	messages, citations, err := e.Prompt(ctx, question, history)
	if err != nil {
		return "", nil, err
	}

	answer, err := e.generator.Chat(ctx, llm.ChatRequest{
		Model:       e.cfg.Model,
		Messages:    messages,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return "", nil, fmt.Errorf("generate: %w", err)
	}
	return answer, citations, nil
}

func (e *Engine) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant for questions about %s. ", e.cfg.Source())
	b.WriteString("Use ONLY the provided context when possible. ")
	b.WriteString("When you use a chunk, cite it with [S1], [S2], etc. ")
	b.WriteString("If the context is not enough, say what is missing. ")
	b.WriteString("If the context is empty, say that no grounding context was found instead of guessing.")
	return b.String()
}
