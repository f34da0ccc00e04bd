package domain

import "unicode/utf8"

// Metadata keys carried on assistant messages so a polling client can
// follow a long-running pipeline.
const (
	MetaStep        = "step"         // pipeline step label, e.g. "venue_search"
	MetaKeepPolling = "keep_polling" // true while more messages are coming
	MetaError       = "error"        // message describes a failure
)

// Message is one entry in a conversation timeline. Immutable once created.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Role           Role
	Text           string
	CreatedAt      Timestamp

	// Meta holds open-ended annotations (step labels, client hints).
	Meta map[string]any
}

// KeepPolling reports the client hint carried on the message, defaulting
// to false when absent.
func (m *Message) KeepPolling() bool {
	if m == nil || m.Meta == nil {
		return false
	}
	v, _ := m.Meta[MetaKeepPolling].(bool)
	return v
}

// Conversation is an append-only message timeline. Messages are never
// reordered or truncated.
type Conversation struct {
	ID        ConversationID
	Title     string
	Messages  []*Message
	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// ConversationSummary is the listing view of a conversation, without the
// full message history.
type ConversationSummary struct {
	ID                 ConversationID
	Title              string
	MessageCount       int
	LastMessagePreview string
	CreatedAt          Timestamp
	UpdatedAt          Timestamp
}

const titleLimit = 50

// DeriveTitle builds a conversation title from the first user message.
func DeriveTitle(text string) string {
	if utf8.RuneCountInString(text) <= titleLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleLimit]) + "..."
}
