// Package app hosts the root Bubble Tea model: the catalog menu, the chat
// screen and the one-shot task screens, plus the premium access prompt.
package app

import "sparkdesk/internal/usecase"

// taskResultMsg carries the outcome of a one-shot feature run.
type taskResultMsg struct {
	Output string
	Err    error
	Gen    uint64
}

// stepMsg is one emitted line of the packaging walkthrough.
type stepMsg struct {
	Step  usecase.BuildStep
	Index int
	Total int
	Gen   uint64
}

// packageDoneMsg signals the packaging walkthrough finished.
type packageDoneMsg struct {
	Result *usecase.PackageResult
	Err    error
	Gen    uint64
}

// unlockResultMsg carries the outcome of an access code attempt.
type unlockResultMsg struct {
	Err error
}
