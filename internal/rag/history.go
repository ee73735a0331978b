package rag

import "github.com/folioqa/folio/internal/llm"

// TrimHistory keeps only the most recent turns of a conversation, bounding
// the prompt size. A turn is one user message plus one assistant reply, so
// maxTurns=6 keeps at most 12 messages.
func TrimHistory(history []llm.Message, maxTurns int) []llm.Message {
	if maxTurns <= 0 {
		return nil
	}
	limit := maxTurns * 2
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
