package firestore

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avasquez/festa-agent/internal/domain"
)

// ─────────────────────────────────────────
// PlanStore implementation
// ─────────────────────────────────────────

func (s *Store) SavePlan(plan *domain.Plan) error {
	ctx := context.Background()

	doc := planDoc{
		ID:             string(plan.ID),
		ConversationID: string(plan.ConversationID),
		Request:        plan.Request,
		Text:           plan.Text,
		State:          string(plan.State),
		Gathered:       plan.Gathered,
		Feedback:       plan.Feedback,
		CreatedAt:      plan.CreatedAt,
		UpdatedAt:      plan.UpdatedAt,
	}
	for _, turn := range plan.GatherLog {
		doc.GatherLog = append(doc.GatherLog, gatherTurnDoc{
			Role: string(turn.Role),
			Text: turn.Text,
		})
	}

	if _, err := s.planRef(plan.ConversationID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SavePlan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(id domain.ConversationID) (*domain.Plan, error) {
	ctx := context.Background()

	snap, err := s.planRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("plan for conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetPlan: %w", err)
	}

	var doc planDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetPlan decode: %w", err)
	}

	plan := &domain.Plan{
		ID:             domain.PlanID(doc.ID),
		ConversationID: domain.ConversationID(doc.ConversationID),
		Request:        doc.Request,
		Text:           doc.Text,
		State:          domain.PlanState(doc.State),
		Gathered:       doc.Gathered,
		Feedback:       doc.Feedback,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	for _, turn := range doc.GatherLog {
		plan.GatherLog = append(plan.GatherLog, domain.GatherTurn{
			Role: domain.Role(turn.Role),
			Text: turn.Text,
		})
	}
	return plan, nil
}

func (s *Store) DeletePlan(id domain.ConversationID) (bool, error) {
	ctx := context.Background()

	if _, err := s.planRef(id).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("firestore DeletePlan: %w", err)
	}
	if _, err := s.planRef(id).Delete(ctx); err != nil {
		return false, fmt.Errorf("firestore DeletePlan: %w", err)
	}
	return true, nil
}

// ─────────────────────────────────────────
// TaskStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveTasks(id domain.PlanID, tasks []*domain.Task) error {
	ctx := context.Background()

	doc := taskListDoc{PlanID: string(id)}
	for _, task := range tasks {
		tdoc := taskDoc{
			ID:           string(task.ID),
			Instructions: task.Instructions,
		}
		for _, place := range task.Places {
			tdoc.Places = append(tdoc.Places, placeDoc{
				Name:    place.Name,
				Phone:   place.Phone,
				Website: place.Website,
			})
		}
		doc.Tasks = append(doc.Tasks, tdoc)
	}

	if _, err := s.tasksRef(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveTasks: %w", err)
	}
	return nil
}

func (s *Store) GetTasks(id domain.PlanID) ([]*domain.Task, error) {
	ctx := context.Background()

	snap, err := s.tasksRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetTasks: %w", err)
	}

	var doc taskListDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetTasks decode: %w", err)
	}

	var tasks []*domain.Task
	for _, tdoc := range doc.Tasks {
		task := &domain.Task{
			ID:           domain.TaskID(tdoc.ID),
			PlanID:       id,
			Instructions: tdoc.Instructions,
		}
		for _, pdoc := range tdoc.Places {
			task.Places = append(task.Places, domain.Place{
				Name:    pdoc.Name,
				Phone:   pdoc.Phone,
				Website: pdoc.Website,
			})
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
