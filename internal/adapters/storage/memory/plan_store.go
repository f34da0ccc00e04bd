package memory

import (
	"fmt"
	"sync"

	"github.com/avasquez/festa-agent/internal/domain"
)

type PlanStore struct {
	mu    sync.RWMutex
	plans map[domain.ConversationID]*domain.Plan
}

func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[domain.ConversationID]*domain.Plan)}
}

func (s *PlanStore) SavePlan(plan *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *plan
	s.plans[plan.ConversationID] = &clone
	return nil
}

func (s *PlanStore) GetPlan(id domain.ConversationID) (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan for conversation %s: %w", id, domain.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (s *PlanStore) DeletePlan(id domain.ConversationID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return false, nil
	}
	delete(s.plans, id)
	return true, nil
}
