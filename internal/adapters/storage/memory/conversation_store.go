package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/avasquez/festa-agent/internal/domain"
)

type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[domain.ConversationID]*domain.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[domain.ConversationID]*domain.Conversation),
	}
}

func (s *ConversationStore) CreateConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

func (s *ConversationStore) SaveConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

func (s *ConversationStore) GetConversation(id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return cloneConversation(conv), nil
}

func (s *ConversationStore) ConversationExists(id domain.ConversationID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.conversations[id]
	return ok
}

func (s *ConversationStore) AppendMessage(id domain.ConversationID, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
	if conv.Title == "" && msg.Role == domain.RoleUser && len(conv.Messages) <= 2 {
		conv.Title = domain.DeriveTitle(msg.Text)
	}
	return nil
}

func (s *ConversationStore) ListConversations() ([]*domain.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ConversationSummary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		sum := &domain.ConversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
		}
		if len(conv.Messages) > 0 {
			preview := conv.Messages[len(conv.Messages)-1].Text
			if utf8.RuneCountInString(preview) > 100 {
				preview = string([]rune(preview)[:100])
			}
			sum.LastMessagePreview = preview
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *ConversationStore) DeleteConversation(id domain.ConversationID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return false, nil
	}
	delete(s.conversations, id)
	return true, nil
}

func cloneConversation(conv *domain.Conversation) *domain.Conversation {
	clone := *conv
	clone.Messages = append([]*domain.Message(nil), conv.Messages...)
	return &clone
}
