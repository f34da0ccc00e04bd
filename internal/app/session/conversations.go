package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

// CreateConversation opens a new empty conversation.
func (o *Orchestrator) CreateConversation(ctx context.Context) (*domain.Conversation, error) {
	now := o.now()
	conv := &domain.Conversation{
		ID:        domain.ConversationID(uuid.NewString()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.conversations.CreateConversation(conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("conversation created", "conversation_id", conv.ID)
	return conv, nil
}

// GetConversation returns a conversation with its full message history.
func (o *Orchestrator) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	return o.conversations.GetConversation(id)
}

// ListConversations returns all conversation summaries, newest first.
func (o *Orchestrator) ListConversations(ctx context.Context) ([]*domain.ConversationSummary, error) {
	return o.conversations.ListConversations()
}

// Messages returns a page of a conversation's messages.
func (o *Orchestrator) Messages(ctx context.Context, id domain.ConversationID, limit, offset int) ([]*domain.Message, error) {
	conv, err := o.conversations.GetConversation(id)
	if err != nil {
		return nil, err
	}

	msgs := conv.Messages
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// DeleteConversation removes a conversation and its plan, if any.
func (o *Orchestrator) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	lock := o.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	ok, err := o.conversations.DeleteConversation(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	if _, err := o.plans.DeletePlan(id); err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to delete plan",
			"conversation_id", id, "error", err)
	}

	o.mu.Lock()
	delete(o.locks, id)
	o.mu.Unlock()
	return nil
}
