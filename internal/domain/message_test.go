package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageJSONRoundTrip(t *testing.T) {
	msg := Message{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Role:      RoleUser,
		Text:      "hello",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Role != msg.Role || got.Text != msg.Text {
		t.Errorf("got %+v, want %+v", got, msg)
	}
}

func TestConversationAppendOrder(t *testing.T) {
	var conv Conversation
	now := time.Now()
	conv.Append(Message{Role: RoleUser, Text: "one", CreatedAt: now})
	conv.Append(Message{Role: RoleAssistant, Text: "two", CreatedAt: now.Add(time.Second)})

	if conv.Len() != 2 {
		t.Fatalf("len = %d, want 2", conv.Len())
	}
	if conv.Messages[0].Text != "one" || conv.Messages[1].Text != "two" {
		t.Errorf("messages out of order: %+v", conv.Messages)
	}
	if last := conv.Last(); last == nil || last.Text != "two" {
		t.Errorf("Last() = %+v, want text %q", last, "two")
	}
	if !conv.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Errorf("UpdatedAt = %v, want append time", conv.UpdatedAt)
	}
}

func TestConversationLastEmpty(t *testing.T) {
	var conv Conversation
	if conv.Last() != nil {
		t.Error("Last() on empty conversation should be nil")
	}
}
