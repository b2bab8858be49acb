package transcript_test

import (
	"testing"

	"github.com/travelagi/dashboard/internal/model/chat"
	"github.com/travelagi/dashboard/internal/service/transcript"
)

func TestAppendPreservesOrder(t *testing.T) {
	svc := transcript.NewService()

	svc.Append(chat.Message{Role: chat.RoleUser, Message: "first"})
	svc.Append(chat.Message{Role: chat.RoleAgent, Message: "second"})
	svc.Append(chat.Message{Role: chat.RoleUser, Message: "third"})

	messages := svc.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	want := []string{"first", "second", "third"}
	for i, text := range want {
		if messages[i].Message != text {
			t.Fatalf("message %d = %q, want %q", i, messages[i].Message, text)
		}
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	svc := transcript.NewService()
	svc.Append(chat.Message{Role: chat.RoleUser, Message: "original"})

	messages := svc.Messages()
	messages[0].Message = "mutated"

	if svc.Messages()[0].Message != "original" {
		t.Fatal("caller mutation leaked into the transcript")
	}
}
