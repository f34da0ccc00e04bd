package memory

import (
	"sync"

	"github.com/avasquez/festa-agent/internal/domain"
)

type TaskStore struct {
	mu    sync.RWMutex
	tasks map[domain.PlanID][]*domain.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[domain.PlanID][]*domain.Task)}
}

func (s *TaskStore) SaveTasks(id domain.PlanID, tasks []*domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[id] = append([]*domain.Task(nil), tasks...)
	return nil
}

func (s *TaskStore) GetTasks(id domain.PlanID) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Task(nil), s.tasks[id]...), nil
}
