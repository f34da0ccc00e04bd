package session

import (
	"context"
	"fmt"

	"github.com/avasquez/festa-agent/internal/app/search"
	"github.com/avasquez/festa-agent/internal/app/taskgen"
	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

// runPipeline drives the automatic SEARCHING -> TASK_GENERATION ->
// EXECUTING pass. It is entered when gathering completes, or re-entered
// from the persisted state after an interrupted run. Each phase persists
// its artifacts before the state moves on, so every boundary is a durable
// checkpoint. Not cancellable once started; a concurrent message for the
// same conversation waits on the lock.
func (o *Orchestrator) runPipeline(ctx context.Context, id domain.ConversationID, p domain.Plan) (*domain.Message, error) {
	log := observability.LoggerFromContext(ctx).With(
		"conversation_id", id,
		"plan_id", p.ID,
	)
	log.Info("automatic pipeline started", "state", p.State)

	var tasks []*domain.Task
	var err error

	switch p.State {
	case domain.StateSearching, domain.StateTaskGeneration:
		// TASK_GENERATION re-runs the search too: its inputs are not
		// persisted separately and the search is idempotent.
		tasks, err = o.searchAndGenerate(ctx, id, &p)
		if err != nil {
			return nil, err
		}
	case domain.StateExecuting:
		tasks, err = o.tasks.GetTasks(p.ID)
		if err != nil {
			return nil, fmt.Errorf("reloading tasks: %w", err)
		}
	default:
		return nil, fmt.Errorf("pipeline entered in state %q", p.State)
	}

	return o.execute(ctx, id, p, tasks)
}

// searchAndGenerate runs the search and task-generation phases, leaving
// the plan persisted in EXECUTING with its tasks stored.
func (o *Orchestrator) searchAndGenerate(ctx context.Context, id domain.ConversationID, p *domain.Plan) ([]*domain.Task, error) {
	log := observability.LoggerFromContext(ctx).With("plan_id", p.ID)

	location := p.Gathered["location"]
	if location == "" {
		location = "the user's area"
	}

	found := map[string][]domain.Place{}
	for _, cat := range taskgen.Categories() {
		if !cat.Mentioned(p.Text) {
			continue
		}
		places, err := o.search.Search(ctx, location, cat.Query)
		if err != nil {
			// Search failure degrades to an empty category; the user
			// sees it in the transcript and the pipeline continues.
			o.emit(ctx, id, "venue_search",
				fmt.Sprintf("Searching for %s failed, skipping that part.", cat.Query), true)
			continue
		}
		found[cat.Name] = places
		o.emit(ctx, id, "venue_search", search.FormatPlaces(places, cat.Title), true)
	}

	p.State = domain.StateTaskGeneration
	p.UpdatedAt = o.now()
	if err := o.plans.SavePlan(p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	tasks := taskgen.Build(p, found)
	if err := o.tasks.SaveTasks(p.ID, tasks); err != nil {
		return nil, fmt.Errorf("saving tasks: %w", err)
	}
	log.Info("tasks generated", "count", len(tasks))
	o.emit(ctx, id, "task_generation",
		fmt.Sprintf("Prepared %d task(s) to carry out. Starting the calls...", len(tasks)), true)

	p.State = domain.StateExecuting
	p.UpdatedAt = o.now()
	if err := o.plans.SavePlan(p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return tasks, nil
}

// execute runs the engine over the tasks and completes the plan. The
// final message clears the keep-polling hint.
func (o *Orchestrator) execute(ctx context.Context, id domain.ConversationID, p domain.Plan, tasks []*domain.Task) (*domain.Message, error) {
	var last *domain.Message
	reporter := func(step, text string) {
		last = o.emit(ctx, id, step, text, true)
	}

	o.engine.ExecuteAll(ctx, tasks, reporter)

	p.State = domain.StateComplete
	p.UpdatedAt = o.now()
	if err := o.plans.SavePlan(&p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	final := o.emit(ctx, id, "plan_complete",
		"The plan has been carried out. Start a new conversation to plan something else!", false)
	if final != nil {
		return final, nil
	}
	return last, nil
}

// emit appends one pipeline progress message to the conversation as it
// happens. Persistence failures are logged, not fatal: losing a progress
// line must not abort the pipeline.
func (o *Orchestrator) emit(ctx context.Context, id domain.ConversationID, step, text string, keepPolling bool) *domain.Message {
	msg := o.newMessage(id, domain.RoleAssistant, text, map[string]any{
		domain.MetaStep:        step,
		domain.MetaKeepPolling: keepPolling,
	})
	if err := o.conversations.AppendMessage(id, msg); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to append pipeline message",
			"step", step, "error", err)
		return nil
	}
	return msg
}
