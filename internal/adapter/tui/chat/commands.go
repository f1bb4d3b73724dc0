package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/usecase"
)

// sendCmd runs one chat exchange in a background goroutine. After every
// applied fragment it pushes a snapshot of the assistant text onto updates;
// a superseded snapshot still sitting in the buffer is dropped first, so the
// channel always holds the newest state and the sender never blocks. The
// snapshot is taken on the same goroutine that mutates the conversation,
// which keeps the Update loop from reading it mid-stream. The channel is
// closed when the exchange ends so pending waiters unblock. gen tags the
// resulting messages so stale responses from cancelled requests can be
// discarded.
func sendCmd(ctx context.Context, svc *usecase.ChatService, conv *domain.Conversation, prompt string, att *domain.Attachment, updates chan string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		err := svc.Send(ctx, conv, prompt, att, func() {
			last := conv.Last()
			if last == nil || last.Role != domain.RoleAssistant {
				return
			}
			select {
			case <-updates: // superseded snapshot
			default:
			}
			updates <- last.Text
		})
		close(updates)
		return DoneMsg{Err: err, Gen: gen}
	}
}

// waitForUpdateCmd blocks until the next snapshot and re-enters the update
// loop. A closed channel yields no message; DoneMsg renders the final state.
func waitForUpdateCmd(updates chan string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-updates
		if !ok {
			return nil
		}
		return StreamUpdateMsg{Text: text, Gen: gen}
	}
}
