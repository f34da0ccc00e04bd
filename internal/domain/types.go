package domain

import "time"

type ConversationID string
type PlanID string
type MessageID string
type TaskID string

// CallSessionID identifies one in-flight outbound call at the voice provider.
type CallSessionID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time
