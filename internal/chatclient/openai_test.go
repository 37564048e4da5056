package chatclient

import (
	"testing"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

func TestEncodeOpenAIMessagesPreservesOrderAndRoles(t *testing.T) {
	msgs := []communicator.Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	encoded := encodeOpenAIMessages(msgs)
	if len(encoded) != 3 {
		t.Fatalf("expected 3 encoded messages, got %d", len(encoded))
	}
}
