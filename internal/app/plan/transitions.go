package plan

import "github.com/avasquez/festa-agent/internal/domain"

// transitions defines the legal state graph. There is no skipping
// backward; only an explicit reset returns to INITIAL.
var transitions = map[domain.PlanState][]domain.PlanState{
	domain.StateInitial:        {domain.StatePlanning},
	domain.StatePlanning:       {domain.StateRefinement, domain.StateConfirmed},
	domain.StateRefinement:     {domain.StateRefinement, domain.StateConfirmed},
	domain.StateConfirmed:      {domain.StateGathering},
	domain.StateGathering:      {domain.StateGathering, domain.StateSearching},
	domain.StateSearching:      {domain.StateTaskGeneration},
	domain.StateTaskGeneration: {domain.StateExecuting},
	domain.StateExecuting:      {domain.StateComplete},
	domain.StateComplete:       {}, // terminal until reset
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to domain.PlanState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state has no outgoing transitions.
func IsTerminal(state domain.PlanState) bool {
	next, ok := transitions[state]
	return ok && len(next) == 0
}

// Reset clears all workflow state and returns the plan to INITIAL. This is
// the only way out of COMPLETE.
func Reset(p domain.Plan) domain.Plan {
	p.State = domain.StateInitial
	p.Text = ""
	p.Request = ""
	p.Feedback = nil
	p.Gathered = nil
	p.GatherLog = nil
	return p
}
