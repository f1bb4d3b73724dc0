package usecase

import "testing"

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("id %q has length %d, want 26", id, len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession()
	if s.ID == "" || s.Conversation.ID == "" {
		t.Error("ids must be populated")
	}
	if s.PremiumUnlocked {
		t.Error("sessions start locked")
	}
	if s.Conversation.Len() != 0 {
		t.Error("conversation starts empty")
	}
	if s.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}
