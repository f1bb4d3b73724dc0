package domain

import "time"

// Role constants for message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment is a single inline media payload supplied alongside a message,
// e.g. an image the user wants the model to look at.
type Attachment struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
	Label    string `json:"label,omitempty"`
}

// Message is a single turn in a conversation. For an in-progress assistant
// turn Text grows fragment by fragment; once the turn is sealed the message
// must not be mutated again.
type Message struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Conversation holds an ordered, append-only sequence of messages. Insertion
// order is both the display order and the order sent to the provider as
// history.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.CreatedAt
}

// Last returns a pointer to the most recent message, or nil when empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.Messages) }
