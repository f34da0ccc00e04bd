package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/avasquez/festa-agent/internal/domain"
)

func (s *Store) conversationPath(id domain.ConversationID) string {
	return filepath.Join(s.base, "conversations", fmt.Sprintf("conversation_%s.json", id))
}

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	lock := s.lockFor("conversation:" + string(conv.ID))
	lock.Lock()
	defer lock.Unlock()

	path := s.conversationPath(conv.ID)
	var existing conversationDoc
	if found, err := s.loadDoc(path, &existing); err != nil {
		return err
	} else if found {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	return s.saveDoc(path, toConversationDoc(conv))
}

func (s *Store) SaveConversation(conv *domain.Conversation) error {
	lock := s.lockFor("conversation:" + string(conv.ID))
	lock.Lock()
	defer lock.Unlock()

	return s.saveDoc(s.conversationPath(conv.ID), toConversationDoc(conv))
}

func (s *Store) GetConversation(id domain.ConversationID) (*domain.Conversation, error) {
	lock := s.lockFor("conversation:" + string(id))
	lock.Lock()
	defer lock.Unlock()

	var doc conversationDoc
	found, err := s.loadDoc(s.conversationPath(id), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return fromConversationDoc(doc), nil
}

func (s *Store) ConversationExists(id domain.ConversationID) bool {
	_, err := os.Stat(s.conversationPath(id))
	return err == nil
}

func (s *Store) AppendMessage(id domain.ConversationID, msg *domain.Message) error {
	lock := s.lockFor("conversation:" + string(id))
	lock.Lock()
	defer lock.Unlock()

	path := s.conversationPath(id)
	var doc conversationDoc
	found, err := s.loadDoc(path, &doc)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	doc.Messages = append(doc.Messages, toMessageDoc(msg))
	doc.UpdatedAt = time.Now()

	// The first user message titles the conversation.
	if doc.Title == "" && msg.Role == domain.RoleUser && len(doc.Messages) <= 2 {
		doc.Title = domain.DeriveTitle(msg.Text)
	}

	return s.saveDoc(path, doc)
}

func (s *Store) ListConversations() ([]*domain.ConversationSummary, error) {
	paths, err := filepath.Glob(filepath.Join(s.base, "conversations", "conversation_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	var out []*domain.ConversationSummary
	for _, path := range paths {
		var doc conversationDoc
		// Skip unreadable files instead of failing the whole listing.
		if found, err := s.loadDoc(path, &doc); err != nil || !found {
			continue
		}
		out = append(out, summarize(doc))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) DeleteConversation(id domain.ConversationID) (bool, error) {
	key := "conversation:" + string(id)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.deleteDoc(s.conversationPath(id))
	if err != nil {
		return false, err
	}
	if ok {
		s.dropLock(key)
	}
	return ok, nil
}

const previewLimit = 100

func summarize(doc conversationDoc) *domain.ConversationSummary {
	sum := &domain.ConversationSummary{
		ID:           domain.ConversationID(doc.ID),
		Title:        doc.Title,
		MessageCount: len(doc.Messages),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if len(doc.Messages) > 0 {
		preview := doc.Messages[len(doc.Messages)-1].Text
		if utf8.RuneCountInString(preview) > previewLimit {
			preview = string([]rune(preview)[:previewLimit])
		}
		sum.LastMessagePreview = preview
	}
	return sum
}
