// Package session owns the per-conversation workflow: it serializes
// message processing per conversation, routes each inbound message to the
// planning state machine or the plain chat responder, and drives the
// automatic search/generate/execute pipeline across a phase boundary.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avasquez/festa-agent/internal/app/executor"
	"github.com/avasquez/festa-agent/internal/app/intent"
	"github.com/avasquez/festa-agent/internal/app/plan"
	"github.com/avasquez/festa-agent/internal/app/search"
	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const historyWindow = 20

type Orchestrator struct {
	llm           domain.LLMClient
	conversations domain.ConversationStore
	plans         domain.PlanStore
	tasks         domain.TaskStore

	machine *plan.Machine
	search  *search.Service
	engine  *executor.Engine
	intents intent.Classifier

	now func() time.Time

	// locks serializes processing per conversation. Guarded by mu only
	// for lookup/insert; a conversation's lock is never held while mu is.
	mu    sync.Mutex
	locks map[domain.ConversationID]*sync.Mutex
}

func NewOrchestrator(
	llm domain.LLMClient,
	conversations domain.ConversationStore,
	plans domain.PlanStore,
	tasks domain.TaskStore,
	machine *plan.Machine,
	searcher *search.Service,
	engine *executor.Engine,
	intents intent.Classifier,
) *Orchestrator {
	return &Orchestrator{
		llm:           llm,
		conversations: conversations,
		plans:         plans,
		tasks:         tasks,
		machine:       machine,
		search:        searcher,
		engine:        engine,
		intents:       intents,
		now:           time.Now,
		locks:         make(map[domain.ConversationID]*sync.Mutex),
	}
}

func (o *Orchestrator) lockFor(id domain.ConversationID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[id]
	if !ok {
		l = &sync.Mutex{}
		o.locks[id] = l
	}
	return l
}

// HandleMessage processes one inbound user message. Processing for the
// same conversation is strictly serialized; a second message waits for
// the first to finish rather than interleaving.
//
// The returned assistant message is the last one produced this step;
// during the automatic pipeline intermediate messages are appended to
// storage as they happen so a polling client can follow along.
func (o *Orchestrator) HandleMessage(ctx context.Context, id domain.ConversationID, text string) (*domain.Message, *domain.Message, error) {
	lock := o.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	log := observability.LoggerFromContext(ctx).With("conversation_id", id)

	if !o.conversations.ConversationExists(id) {
		return nil, nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	// Persist the user message before any slow work so pollers see it
	// immediately.
	userMsg := o.newMessage(id, domain.RoleUser, text, nil)
	if err := o.conversations.AppendMessage(id, userMsg); err != nil {
		return nil, nil, fmt.Errorf("saving user message: %w", err)
	}

	assistant, err := o.respond(ctx, id, text)
	if err != nil {
		log.Error("message processing failed", "error", err)
		// Best effort: leave an error entry in the transcript before
		// giving up.
		errMsg := o.newMessage(id, domain.RoleAssistant,
			"Sorry, something went wrong while processing your message. Please try again.",
			map[string]any{domain.MetaError: true, domain.MetaKeepPolling: false},
		)
		if appendErr := o.conversations.AppendMessage(id, errMsg); appendErr != nil {
			log.Error("failed to persist error message", "error", appendErr)
			return userMsg, nil, err
		}
		return userMsg, errMsg, nil
	}

	return userMsg, assistant, nil
}

// respond routes the message: active plan first, then new-request
// detection, then plain chat.
func (o *Orchestrator) respond(ctx context.Context, id domain.ConversationID, text string) (*domain.Message, error) {
	log := observability.LoggerFromContext(ctx).With("conversation_id", id)

	p, err := o.plans.GetPlan(id)
	switch {
	case err == nil && p.State != domain.StateComplete:
		return o.advancePlan(ctx, id, *p, text)

	case o.intents.IsEventRequest(text):
		log.Info("new planning request detected")
		now := o.now()
		var fresh domain.Plan
		if err == nil {
			// Completed plan: reset is the only way out of COMPLETE. The
			// new workflow gets its own id so its tasks are keyed apart.
			fresh = plan.Reset(*p)
		} else {
			fresh = domain.Plan{ConversationID: id, State: domain.StateInitial, CreatedAt: now}
		}
		fresh.ID = domain.PlanID(uuid.NewString())
		fresh.UpdatedAt = now
		return o.advancePlan(ctx, id, fresh, text)

	case err == nil:
		// Completed plan and not a new request: the machine answers with
		// its terminal reply.
		return o.advancePlan(ctx, id, *p, text)

	default:
		return o.chatReply(ctx, id, text)
	}
}

func (o *Orchestrator) advancePlan(ctx context.Context, id domain.ConversationID, p domain.Plan, text string) (*domain.Message, error) {
	result, err := o.machine.Step(ctx, p, text)
	if err != nil {
		return nil, err
	}

	updated := result.Plan
	updated.UpdatedAt = o.now()
	if err := o.plans.SavePlan(&updated); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	var last *domain.Message
	if result.Reply != "" {
		polling := result.GatheringComplete || result.ResumePipeline
		last = o.newMessage(id, domain.RoleAssistant, result.Reply,
			map[string]any{domain.MetaKeepPolling: polling})
		if err := o.conversations.AppendMessage(id, last); err != nil {
			return nil, fmt.Errorf("saving assistant message: %w", err)
		}
	}

	if result.GatheringComplete || result.ResumePipeline {
		return o.runPipeline(ctx, id, updated)
	}
	return last, nil
}

// chatReply answers a non-planning message with a bounded window of the
// recent history as context.
func (o *Orchestrator) chatReply(ctx context.Context, id domain.ConversationID, text string) (*domain.Message, error) {
	conv, err := o.conversations.GetConversation(id)
	if err != nil {
		return nil, err
	}

	history := conv.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	reply, err := o.llm.Generate(ctx, domain.GenerateRequest{
		System:  chatSystemPrompt,
		History: history,
		Prompt:  text,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("chat reply failed", "error", err)
		reply = "Sorry, I could not come up with a reply. Please try again."
	}

	msg := o.newMessage(id, domain.RoleAssistant, reply,
		map[string]any{domain.MetaKeepPolling: false})
	if err := o.conversations.AppendMessage(id, msg); err != nil {
		return nil, fmt.Errorf("saving assistant message: %w", err)
	}
	return msg, nil
}

func (o *Orchestrator) newMessage(id domain.ConversationID, role domain.Role, text string, meta map[string]any) *domain.Message {
	return &domain.Message{
		ID:             domain.MessageID(uuid.NewString()),
		ConversationID: id,
		Role:           role,
		Text:           text,
		CreatedAt:      o.now(),
		Meta:           meta,
	}
}

const chatSystemPrompt = `You are a helpful assistant for an event-planning and call-scheduling system.
You can help users with:
- Planning events and parties
- Checking the status of outbound calls
- Managing their schedule
- Answering questions about the system

Answer in a professional, friendly and concrete way.`
