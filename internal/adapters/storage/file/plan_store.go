package file

import (
	"fmt"
	"path/filepath"

	"github.com/avasquez/festa-agent/internal/domain"
)

func (s *Store) planPath(id domain.ConversationID) string {
	return filepath.Join(s.base, "plans", fmt.Sprintf("plan_%s.json", id))
}

func (s *Store) taskPath(id domain.PlanID) string {
	return filepath.Join(s.base, "tasks", fmt.Sprintf("tasks_%s.json", id))
}

func (s *Store) SavePlan(plan *domain.Plan) error {
	lock := s.lockFor("plan:" + string(plan.ConversationID))
	lock.Lock()
	defer lock.Unlock()

	return s.saveDoc(s.planPath(plan.ConversationID), toPlanDoc(plan))
}

func (s *Store) GetPlan(id domain.ConversationID) (*domain.Plan, error) {
	lock := s.lockFor("plan:" + string(id))
	lock.Lock()
	defer lock.Unlock()

	var doc planDoc
	found, err := s.loadDoc(s.planPath(id), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("plan for conversation %s: %w", id, domain.ErrNotFound)
	}
	return fromPlanDoc(doc), nil
}

func (s *Store) DeletePlan(id domain.ConversationID) (bool, error) {
	key := "plan:" + string(id)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.deleteDoc(s.planPath(id))
	if err != nil {
		return false, err
	}
	if ok {
		s.dropLock(key)
	}
	return ok, nil
}

func (s *Store) SaveTasks(id domain.PlanID, tasks []*domain.Task) error {
	lock := s.lockFor("tasks:" + string(id))
	lock.Lock()
	defer lock.Unlock()

	docs := make([]taskDoc, 0, len(tasks))
	for _, t := range tasks {
		docs = append(docs, toTaskDoc(t))
	}
	return s.saveDoc(s.taskPath(id), docs)
}

func (s *Store) GetTasks(id domain.PlanID) ([]*domain.Task, error) {
	lock := s.lockFor("tasks:" + string(id))
	lock.Lock()
	defer lock.Unlock()

	var docs []taskDoc
	found, err := s.loadDoc(s.taskPath(id), &docs)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, fromTaskDoc(d))
	}
	return tasks, nil
}
