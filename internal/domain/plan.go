package domain

// PlanState is the phase of a planning workflow. States only move forward
// (with the PLANNING <-> REFINEMENT loop) until COMPLETE, except via an
// explicit reset back to INITIAL.
type PlanState string

const (
	StateInitial        PlanState = "initial"
	StatePlanning       PlanState = "planning"
	StateRefinement     PlanState = "refinement"
	StateConfirmed      PlanState = "confirmed"
	StateGathering      PlanState = "gathering"
	StateSearching      PlanState = "searching"
	StateTaskGeneration PlanState = "task_generation"
	StateExecuting      PlanState = "executing"
	StateComplete       PlanState = "complete"
)

// GatherTurn is one exchange in the information-gathering sub-dialogue.
// The log lives on the Plan so a reset can clear it.
type GatherTurn struct {
	Role Role
	Text string
}

// Plan is the persisted record of one event-planning workflow. Exactly one
// live Plan exists per conversation; a Plan in StateComplete frees the
// conversation to start a new one.
type Plan struct {
	ID             PlanID
	ConversationID ConversationID

	// Request is the original free-text request that started the plan.
	Request string
	// Text is the current plan wording, revised in place across
	// refinement rounds.
	Text string

	State PlanState

	// Gathered holds the structured fields collected during the
	// gathering phase (full_name, phone, date, time, location, ...).
	Gathered map[string]string
	// Feedback is the ordered history of user modification requests.
	Feedback []string
	// GatherLog is the gathering sub-dialogue so far.
	GatherLog []GatherTurn

	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// Place is one contactable candidate for a task.
type Place struct {
	Name    string
	Phone   string
	Website string
}

// Task is one unit of outbound work: natural-language instructions for the
// calling agent plus an ordered fallback list of candidates. Immutable
// after generation.
type Task struct {
	ID           TaskID
	PlanID       PlanID
	Instructions string
	Places       []Place
}

// Outcome is the verdict produced after evaluating one contact attempt.
// It is folded into transcript messages, never persisted on its own.
type Outcome struct {
	Success bool
	// Continue tells the engine to keep trying further candidates.
	Continue   bool
	Reason     string
	Confidence float64
	// Details carries extracted booking facts (date, time, price, ...).
	Details map[string]string
}
