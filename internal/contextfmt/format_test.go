package contextfmt_test

import (
	"strings"
	"testing"

	"github.com/pocketomega/support-agent/internal/contextfmt"
	"github.com/pocketomega/support-agent/internal/state"
)

func TestConversationHistory_NumbersMessagesAndIncludesSubject(t *testing.T) {
	messages := []state.Message{
		{Role: "user", Content: "Hi there"},
		{Role: "assistant", Content: "How can I help?"},
	}

	got := contextfmt.ConversationHistory(messages, "Billing question")

	if !strings.HasPrefix(got, "Subject: Billing question\n") {
		t.Errorf("expected subject prefix, got:\n%s", got)
	}
	if !strings.Contains(got, "1. User: Hi there") {
		t.Errorf("expected numbered user message, got:\n%s", got)
	}
	if !strings.Contains(got, "2. Assistant: How can I help?") {
		t.Errorf("expected numbered assistant message, got:\n%s", got)
	}
}

func TestConversationHistory_NoSubjectOmitsPrefix(t *testing.T) {
	messages := []state.Message{{Role: "user", Content: "Hello"}}

	got := contextfmt.ConversationHistory(messages, "")

	if strings.Contains(got, "Subject:") {
		t.Errorf("expected no subject line when subject is empty, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "Conversation:\n1. User: Hello") {
		t.Errorf("expected conversation header followed by numbered message, got:\n%s", got)
	}
}

func TestConversationHistory_NoMessages(t *testing.T) {
	got := contextfmt.ConversationHistory(nil, "")
	if got != "Conversation: No messages available" {
		t.Errorf("expected the no-messages placeholder, got:\n%s", got)
	}
}

func TestConversationHistory_RendersAttachmentDetails(t *testing.T) {
	messages := []state.Message{
		{
			Role:    "user",
			Content: "See attached",
			Attachments: []state.Attachment{
				{
					Name:        "screenshot.png",
					ContentType: "image/png",
					URL:         "https://example.com/screenshot.png",
					Filesize:    2048,
					Width:       800,
					Height:      600,
				},
			},
		},
	}

	got := contextfmt.ConversationHistory(messages, "")

	if !strings.Contains(got, "📎 Attachment 1: screenshot.png (Type: image/png)") {
		t.Errorf("expected attachment header, got:\n%s", got)
	}
	if !strings.Contains(got, "URL: https://example.com/screenshot.png") {
		t.Errorf("expected attachment URL, got:\n%s", got)
	}
	if !strings.Contains(got, "Size: 2.0 KB") {
		t.Errorf("expected attachment size, got:\n%s", got)
	}
	if !strings.Contains(got, "Dimensions: 800x600") {
		t.Errorf("expected attachment dimensions, got:\n%s", got)
	}
}
