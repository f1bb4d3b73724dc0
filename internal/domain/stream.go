package domain

// Fragment is a single incremental chunk of a streaming completion. The
// producer sends fragments in emission order and closes the channel when the
// stream ends. A fragment with Err set is terminal: no further fragments
// follow it. Done marks the normal end-of-stream signal for providers that
// emit one.
type Fragment struct {
	Text string
	Done bool
	Err  error
}

// FragmentStream is a finite, non-restartable sequence of fragments. The
// consumer must either drain it to completion or abandon it by cancelling
// the context that produced it.
type FragmentStream <-chan Fragment
