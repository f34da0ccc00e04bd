package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avasquez/festa-agent/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (FESTA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationRef(id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol().Doc(string(id))
}

func (s *Store) messagesCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationRef(id).Collection("messages")
}

func (s *Store) planRef(id domain.ConversationID) *firestore.DocumentRef {
	return s.client.Collection("plans").Doc(string(id))
}

func (s *Store) tasksRef(id domain.PlanID) *firestore.DocumentRef {
	return s.client.Collection("tasks").Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	Title              string    `firestore:"title"`
	MessageCount       int       `firestore:"message_count"`
	LastMessagePreview string    `firestore:"last_message_preview"`
	CreatedAt          time.Time `firestore:"created_at"`
	UpdatedAt          time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	ConversationID string         `firestore:"conversation_id"`
	Role           string         `firestore:"role"`
	Text           string         `firestore:"text"`
	CreatedAt      time.Time      `firestore:"created_at"`
	Meta           map[string]any `firestore:"meta"`
}

type gatherTurnDoc struct {
	Role string `firestore:"role"`
	Text string `firestore:"text"`
}

type planDoc struct {
	ID             string            `firestore:"id"`
	ConversationID string            `firestore:"conversation_id"`
	Request        string            `firestore:"request"`
	Text           string            `firestore:"text"`
	State          string            `firestore:"state"`
	Gathered       map[string]string `firestore:"gathered"`
	Feedback       []string          `firestore:"feedback"`
	GatherLog      []gatherTurnDoc   `firestore:"gather_log"`
	CreatedAt      time.Time         `firestore:"created_at"`
	UpdatedAt      time.Time         `firestore:"updated_at"`
}

type placeDoc struct {
	Name    string `firestore:"name"`
	Phone   string `firestore:"phone"`
	Website string `firestore:"website"`
}

type taskDoc struct {
	ID           string     `firestore:"id"`
	Instructions string     `firestore:"instructions"`
	Places       []placeDoc `firestore:"places"`
}

type taskListDoc struct {
	PlanID string    `firestore:"plan_id"`
	Tasks  []taskDoc `firestore:"tasks"`
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	doc := conversationDoc{
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}

	if _, err := s.conversationRef(conv.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) SaveConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	doc := conversationDoc{
		Title:        conv.Title,
		MessageCount: len(conv.Messages),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	if len(conv.Messages) > 0 {
		doc.LastMessagePreview = preview(conv.Messages[len(conv.Messages)-1].Text)
	}

	if _, err := s.conversationRef(conv.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveConversation: %w", err)
	}

	for _, msg := range conv.Messages {
		if err := s.writeMessage(ctx, conv.ID, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetConversation(id domain.ConversationID) (*domain.Conversation, error) {
	ctx := context.Background()

	snap, err := s.conversationRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConversation decode: %w", err)
	}

	conv := &domain.Conversation{
		ID:        id,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	iter := s.messagesCol(id).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	for {
		msnap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetConversation messages: %w", err)
		}

		var mdoc messageDoc
		if err := msnap.DataTo(&mdoc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		conv.Messages = append(conv.Messages, &domain.Message{
			ID:             domain.MessageID(msnap.Ref.ID),
			ConversationID: id,
			Role:           domain.Role(mdoc.Role),
			Text:           mdoc.Text,
			CreatedAt:      mdoc.CreatedAt,
			Meta:           mdoc.Meta,
		})
	}
	return conv, nil
}

func (s *Store) ConversationExists(id domain.ConversationID) bool {
	ctx := context.Background()
	_, err := s.conversationRef(id).Get(ctx)
	return err == nil
}

func (s *Store) AppendMessage(id domain.ConversationID, msg *domain.Message) error {
	ctx := context.Background()

	snap, err := s.conversationRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return fmt.Errorf("firestore AppendMessage decode: %w", err)
	}

	if err := s.writeMessage(ctx, id, msg); err != nil {
		return err
	}

	doc.MessageCount++
	doc.LastMessagePreview = preview(msg.Text)
	doc.UpdatedAt = time.Now()
	if doc.Title == "" && msg.Role == domain.RoleUser && doc.MessageCount <= 2 {
		doc.Title = domain.DeriveTitle(msg.Text)
	}

	if _, err := s.conversationRef(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage update: %w", err)
	}
	return nil
}

func (s *Store) writeMessage(ctx context.Context, id domain.ConversationID, msg *domain.Message) error {
	doc := messageDoc{
		ConversationID: string(id),
		Role:           string(msg.Role),
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
		Meta:           msg.Meta,
	}
	if _, err := s.messagesCol(id).Doc(string(msg.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore writeMessage: %w", err)
	}
	return nil
}

func (s *Store) ListConversations() ([]*domain.ConversationSummary, error) {
	ctx := context.Background()

	iter := s.conversationsCol().OrderBy("updated_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.ConversationSummary
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListConversations: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		out = append(out, &domain.ConversationSummary{
			ID:                 domain.ConversationID(snap.Ref.ID),
			Title:              doc.Title,
			MessageCount:       doc.MessageCount,
			LastMessagePreview: doc.LastMessagePreview,
			CreatedAt:          doc.CreatedAt,
			UpdatedAt:          doc.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteConversation(id domain.ConversationID) (bool, error) {
	ctx := context.Background()

	// Delete the messages subcollection first.
	iter := s.messagesCol(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return false, fmt.Errorf("firestore DeleteConversation messages: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return false, fmt.Errorf("firestore DeleteConversation message: %w", err)
		}
	}

	if _, err := s.conversationRef(id).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("firestore DeleteConversation: %w", err)
	}
	if _, err := s.conversationRef(id).Delete(ctx); err != nil {
		return false, fmt.Errorf("firestore DeleteConversation: %w", err)
	}
	return true, nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > 100 {
		return string(runes[:100])
	}
	return text
}
