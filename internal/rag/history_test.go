package rag

import (
	"fmt"
	"testing"

	"github.com/folioqa/folio/internal/llm"
)

func TestTrimHistoryKeepsRecentTurns(t *testing.T) {
	var history []llm.Message
	for i := 0; i < 10; i++ {
		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("q%d", i)},
			llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	trimmed := TrimHistory(history, 3)
	if len(trimmed) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(trimmed))
	}
	if trimmed[0].Content != "q7" {
		t.Fatalf("expected oldest kept message q7, got %s", trimmed[0].Content)
	}
	if trimmed[5].Content != "a9" {
		t.Fatalf("expected newest message a9, got %s", trimmed[5].Content)
	}
}

func TestTrimHistoryShortHistoryUntouched(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "q0"},
		{Role: llm.RoleAssistant, Content: "a0"},
	}
	trimmed := TrimHistory(history, 6)
	if len(trimmed) != 2 {
		t.Fatalf("expected history untouched, got %d messages", len(trimmed))
	}
}

func TestTrimHistoryZeroTurns(t *testing.T) {
	history := []llm.Message{{Role: llm.RoleUser, Content: "q"}}
	if trimmed := TrimHistory(history, 0); trimmed != nil {
		t.Fatalf("expected nil for zero turn budget, got %v", trimmed)
	}
}
