package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced conversation or plan is absent.
var ErrNotFound = errors.New("not found")

// GenerateRequest is a single text-generation call to the language model.
type GenerateRequest struct {
	// System is the system instruction, may be empty.
	System string
	// History gives the model prior conversation turns, oldest first.
	History []*Message
	// Prompt is the content generated against.
	Prompt string
}

// LLMClient defines how the core interacts with a language-model service.
type LLMClient interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// CallRecord is the raw interaction record fetched from the voice provider
// once a call reached a terminal status.
type CallRecord struct {
	Status     string
	Transcript []TranscriptItem
}

// TranscriptItem is one turn of a call transcript. Providers disagree on
// field names, so both role/message and speaker/text variants are kept.
type TranscriptItem struct {
	Role    string `json:"role,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
	Content string `json:"content,omitempty"`
}

// CallProvider starts outbound calls and reports their results.
type CallProvider interface {
	// Initiate starts a call to the target. The instructions are handed
	// to the calling agent verbatim.
	Initiate(ctx context.Context, instructions string, target Place) (CallSessionID, error)
	// AwaitCompletion blocks until the call reaches a terminal status or
	// the timeout elapses, in which case it returns an error.
	AwaitCompletion(ctx context.Context, id CallSessionID, timeout time.Duration) (*CallRecord, error)
}

// ConversationStore defines conversation persistence. Implementations must
// guarantee an atomic overwrite so concurrent readers never observe a
// partial record.
type ConversationStore interface {
	CreateConversation(conv *Conversation) error
	SaveConversation(conv *Conversation) error
	GetConversation(id ConversationID) (*Conversation, error)
	ListConversations() ([]*ConversationSummary, error)
	DeleteConversation(id ConversationID) (bool, error)
	ConversationExists(id ConversationID) bool
	// AppendMessage loads the conversation, appends the message and saves
	// the result. The first user message also titles the conversation.
	AppendMessage(id ConversationID, msg *Message) error
}

// PlanStore defines plan persistence, keyed by conversation.
type PlanStore interface {
	SavePlan(plan *Plan) error
	GetPlan(id ConversationID) (*Plan, error)
	DeletePlan(id ConversationID) (bool, error)
}

// TaskStore persists generated tasks, keyed by plan.
type TaskStore interface {
	SaveTasks(id PlanID, tasks []*Task) error
	GetTasks(id PlanID) ([]*Task, error)
}
