package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avasquez/festa-agent/internal/app/session"
	"github.com/avasquez/festa-agent/internal/domain"
)

type Server struct {
	orc *session.Orchestrator
}

func NewServer(orc *session.Orchestrator) http.Handler {
	s := &Server{orc: orc}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	// /conversations → create (POST) or list (GET)
	mux.HandleFunc("/conversations", s.handleConversations)

	// /conversations/{id}          → GET: conversation + messages, DELETE: remove
	// /conversations/{id}/messages → POST: send message, GET: paginated history
	mux.HandleFunc("/conversations/", s.handleConversationWithID)

	return chainMiddlewares(mux, withRequestID, withCORS, withLogging)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type conversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type conversationSummaryResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Text           string         `json:"text"`
	CreatedAt      time.Time      `json:"created_at"`
	Meta           map[string]any `json:"meta,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
}

type getConversationResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
}

type listConversationsResponse struct {
	Conversations []conversationSummaryResponse `json:"conversations"`
}

type listMessagesResponse struct {
	Messages []messageResponse `json:"messages"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /conversations
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateConversation(w, r)
	case http.MethodGet:
		s.handleListConversations(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /conversations/{id} or /conversations/{id}/messages
func (s *Server) handleConversationWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/conversations/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		// /conversations/{id}
		switch r.Method {
		case http.MethodGet:
			s.handleGetConversation(w, r, domain.ConversationID(id))
		case http.MethodDelete:
			s.handleDeleteConversation(w, r, domain.ConversationID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "messages" {
		// /conversations/{id}/messages
		switch r.Method {
		case http.MethodPost:
			s.handleSendMessage(w, r, domain.ConversationID(id))
		case http.MethodGet:
			s.handleListMessages(w, r, domain.ConversationID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.orc.CreateConversation(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.orc.ListConversations(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	resp := listConversationsResponse{
		Conversations: make([]conversationSummaryResponse, 0, len(summaries)),
	}
	for _, sum := range summaries {
		resp.Conversations = append(resp.Conversations, conversationSummaryResponse{
			ID:                 string(sum.ID),
			Title:              sum.Title,
			MessageCount:       sum.MessageCount,
			LastMessagePreview: sum.LastMessagePreview,
			CreatedAt:          sum.CreatedAt,
			UpdatedAt:          sum.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request, id domain.ConversationID) {
	conv, err := s.orc.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	resp := getConversationResponse{
		Conversation: toConversationResponse(conv),
		Messages:     toMessagesResponse(conv.Messages),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request, id domain.ConversationID) {
	if err := s.orc.DeleteConversation(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id domain.ConversationID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	userMsg, agentMsg, err := s.orc.HandleMessage(r.Context(), id, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	resp := sendMessageResponse{
		UserMessage:      toMessageResponse(userMsg),
		AssistantMessage: toMessageResponse(agentMsg),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, id domain.ConversationID) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	msgs, err := s.orc.Messages(r.Context(), id, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listMessagesResponse{Messages: toMessagesResponse(msgs)})
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:        string(c.ID),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		Role:           string(m.Role),
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
		Meta:           m.Meta,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
