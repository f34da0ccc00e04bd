package file

import (
	"time"

	"github.com/avasquez/festa-agent/internal/domain"
)

// JSON document shapes. Kept separate from the domain types so the
// on-disk format does not drift with refactors.

type messageDoc struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Text           string         `json:"text"`
	CreatedAt      time.Time      `json:"created_at"`
	Meta           map[string]any `json:"meta,omitempty"`
}

type conversationDoc struct {
	ID        string       `json:"id"`
	Title     string       `json:"title,omitempty"`
	Messages  []messageDoc `json:"messages"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type gatherTurnDoc struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type planDoc struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Request        string            `json:"request"`
	Text           string            `json:"text"`
	State          string            `json:"state"`
	Gathered       map[string]string `json:"gathered,omitempty"`
	Feedback       []string          `json:"feedback,omitempty"`
	GatherLog      []gatherTurnDoc   `json:"gather_log,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type placeDoc struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Website string `json:"website,omitempty"`
}

type taskDoc struct {
	ID           string     `json:"id"`
	PlanID       string     `json:"plan_id"`
	Instructions string     `json:"instructions"`
	Places       []placeDoc `json:"places"`
}

func toMessageDoc(m *domain.Message) messageDoc {
	return messageDoc{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		Role:           string(m.Role),
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
		Meta:           m.Meta,
	}
}

func fromMessageDoc(d messageDoc) *domain.Message {
	return &domain.Message{
		ID:             domain.MessageID(d.ID),
		ConversationID: domain.ConversationID(d.ConversationID),
		Role:           domain.Role(d.Role),
		Text:           d.Text,
		CreatedAt:      d.CreatedAt,
		Meta:           d.Meta,
	}
}

func toConversationDoc(c *domain.Conversation) conversationDoc {
	doc := conversationDoc{
		ID:        string(c.ID),
		Title:     c.Title,
		Messages:  make([]messageDoc, 0, len(c.Messages)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, m := range c.Messages {
		doc.Messages = append(doc.Messages, toMessageDoc(m))
	}
	return doc
}

func fromConversationDoc(d conversationDoc) *domain.Conversation {
	conv := &domain.Conversation{
		ID:        domain.ConversationID(d.ID),
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, m := range d.Messages {
		conv.Messages = append(conv.Messages, fromMessageDoc(m))
	}
	return conv
}

func toPlanDoc(p *domain.Plan) planDoc {
	doc := planDoc{
		ID:             string(p.ID),
		ConversationID: string(p.ConversationID),
		Request:        p.Request,
		Text:           p.Text,
		State:          string(p.State),
		Gathered:       p.Gathered,
		Feedback:       p.Feedback,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, t := range p.GatherLog {
		doc.GatherLog = append(doc.GatherLog, gatherTurnDoc{Role: string(t.Role), Text: t.Text})
	}
	return doc
}

func fromPlanDoc(d planDoc) *domain.Plan {
	p := &domain.Plan{
		ID:             domain.PlanID(d.ID),
		ConversationID: domain.ConversationID(d.ConversationID),
		Request:        d.Request,
		Text:           d.Text,
		State:          domain.PlanState(d.State),
		Gathered:       d.Gathered,
		Feedback:       d.Feedback,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, t := range d.GatherLog {
		p.GatherLog = append(p.GatherLog, domain.GatherTurn{Role: domain.Role(t.Role), Text: t.Text})
	}
	return p
}

func toTaskDoc(t *domain.Task) taskDoc {
	doc := taskDoc{
		ID:           string(t.ID),
		PlanID:       string(t.PlanID),
		Instructions: t.Instructions,
	}
	for _, p := range t.Places {
		doc.Places = append(doc.Places, placeDoc{Name: p.Name, Phone: p.Phone, Website: p.Website})
	}
	return doc
}

func fromTaskDoc(d taskDoc) *domain.Task {
	t := &domain.Task{
		ID:           domain.TaskID(d.ID),
		PlanID:       domain.PlanID(d.PlanID),
		Instructions: d.Instructions,
	}
	for _, p := range d.Places {
		t.Places = append(t.Places, domain.Place{Name: p.Name, Phone: p.Phone, Website: p.Website})
	}
	return t
}
