package usecase

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"sparkdesk/internal/domain"
)

// NewID returns a new ULID string. ULIDs sort by creation time, which keeps
// message and session ids naturally ordered in logs.
func NewID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewSession creates a fresh locked session with an empty conversation.
func NewSession() *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:        NewID(),
		StartedAt: now,
		Conversation: domain.Conversation{
			ID:        NewID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
