// Package chat implements the streaming conversation screen.
package chat

// StreamUpdateMsg carries a snapshot of the in-flight assistant text, taken
// on the exchange goroutine right after a fragment was applied. The render
// loop draws from the snapshot and never reads the conversation while the
// exchange goroutine is mutating it. Gen identifies the request generation
// so stale updates from cancelled requests can be discarded.
type StreamUpdateMsg struct {
	Text string
	Gen  uint64
}

// DoneMsg signals that the exchange goroutine finished. Gen identifies the
// request generation so stale completions can be discarded.
type DoneMsg struct {
	Err error
	Gen uint64
}

// BackMsg asks the root model to return to the catalog menu.
type BackMsg struct{}
