package domain

import "time"

// Session is per-run application state threaded through construction. The
// premium flag lives here rather than in a package-level variable so that
// every component sees exactly the state it was built with. Unlock is
// set-once for the lifetime of the session.
type Session struct {
	ID              string
	PremiumUnlocked bool
	Conversation    Conversation
	StartedAt       time.Time
}

// Unlock marks the session as premium. Repeated calls are harmless.
func (s *Session) Unlock() { s.PremiumUnlocked = true }

// CanUse reports whether the session may use the given feature.
func (s *Session) CanUse(f Feature) bool {
	return !f.Premium || s.PremiumUnlocked
}
