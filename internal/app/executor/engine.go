// Package executor runs generated tasks against their candidate lists:
// for each task it tries candidates in order, placing a call, waiting for
// it to finish and evaluating the result, until one call succeeds or the
// list is exhausted. Every per-candidate failure falls back to the next
// candidate; only orchestration defects abort a batch.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

// Transcript event labels emitted through the Reporter.
const (
	StepTaskStart     = "task_start"
	StepCallAttempt   = "call_attempt"
	StepCallFailed    = "call_failed"
	StepCallRetry     = "call_retry"
	StepCallSuccess   = "call_success"
	StepTaskExhausted = "task_exhausted"
	StepSummary       = "execution_summary"
)

// Reporter receives one transcript event per engine state change. The
// orchestrator turns these into conversation messages as they happen so
// a polling client sees incremental progress.
type Reporter func(step, text string)

// Attempt is the bookkeeping for one candidate contact.
type Attempt struct {
	Place   domain.Place
	Error   string
	Outcome *domain.Outcome
}

// TaskReport summarizes one executed task.
type TaskReport struct {
	TaskID   domain.TaskID
	Success  bool
	Attempts []Attempt
}

// Summary is the result of a whole batch.
type Summary struct {
	Tasks      []TaskReport
	Successful int
}

type Engine struct {
	calls     domain.CallProvider
	evaluator *Evaluator

	callTimeout time.Duration
	retryPause  time.Duration

	// sandboxPhone, when set, replaces the dialed number. The candidate
	// itself is logged with its real handle.
	sandboxPhone string

	sleep func(ctx context.Context, d time.Duration)
}

type Options struct {
	CallTimeout  time.Duration
	RetryPause   time.Duration
	SandboxPhone string
}

func NewEngine(calls domain.CallProvider, evaluator *Evaluator, opts Options) *Engine {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 4 * time.Minute
	}
	if opts.RetryPause <= 0 {
		opts.RetryPause = 5 * time.Second
	}
	return &Engine{
		calls:        calls,
		evaluator:    evaluator,
		callTimeout:  opts.CallTimeout,
		retryPause:   opts.RetryPause,
		sandboxPhone: opts.SandboxPhone,
		sleep:        sleepCtx,
	}
}

// ExecuteAll runs every task in order. A task with no successful
// candidate does not stop the batch.
func (e *Engine) ExecuteAll(ctx context.Context, tasks []*domain.Task, report Reporter) Summary {
	if report == nil {
		report = func(string, string) {}
	}
	log := observability.LoggerFromContext(ctx)
	log.Info("task execution started", "tasks", len(tasks))

	summary := Summary{}
	for _, task := range tasks {
		res := e.executeTask(ctx, task, report)
		if res.Success {
			summary.Successful++
		}
		summary.Tasks = append(summary.Tasks, res)
	}

	report(StepSummary, summaryText(summary))
	log.Info("task execution finished", "successful", summary.Successful)
	return summary
}

func (e *Engine) executeTask(ctx context.Context, task *domain.Task, report Reporter) TaskReport {
	log := observability.LoggerFromContext(ctx).With("task_id", task.ID)
	res := TaskReport{TaskID: task.ID}

	report(StepTaskStart, fmt.Sprintf(
		"Starting task: %d candidate(s) to try.\n\nInstructions:\n%s",
		len(task.Places), task.Instructions,
	))

	for i, place := range task.Places {
		attempt := Attempt{Place: place}

		report(StepCallAttempt, fmt.Sprintf(
			"Calling %s (%s), attempt %d of %d...",
			place.Name, place.Phone, i+1, len(task.Places),
		))

		outcome, failure := e.tryCandidate(ctx, task, place)
		if failure != "" {
			attempt.Error = failure
			res.Attempts = append(res.Attempts, attempt)
			log.Warn("candidate failed", "place", place.Name, "error", failure)
			report(StepCallFailed, fmt.Sprintf("%s: %s. Trying the next place.", place.Name, failure))
			// Not charged as an evaluated attempt; no pause here.
			continue
		}

		attempt.Outcome = outcome
		res.Attempts = append(res.Attempts, attempt)

		if outcome.Success && !outcome.Continue {
			res.Success = true
			report(StepCallSuccess, successText(place, outcome))
			log.Info("task succeeded", "place", place.Name)
			return res
		}

		report(StepCallRetry, fmt.Sprintf(
			"%s did not work out: %s. Trying the next place.",
			place.Name, outcome.Reason,
		))
		if i < len(task.Places)-1 {
			e.sleep(ctx, e.retryPause)
		}
	}

	report(StepTaskExhausted, fmt.Sprintf(
		"No place could complete this task (%d tried).", len(res.Attempts),
	))
	log.Info("task exhausted", "attempts", len(res.Attempts))
	return res
}

// tryCandidate runs the initiate/await/normalize/evaluate pipeline for a
// single candidate. A non-empty failure string means the candidate was
// skipped before evaluation.
func (e *Engine) tryCandidate(ctx context.Context, task *domain.Task, place domain.Place) (*domain.Outcome, string) {
	dial := place
	if e.sandboxPhone != "" {
		dial.Phone = e.sandboxPhone
	}

	session, err := e.calls.Initiate(ctx, task.Instructions, dial)
	if err != nil {
		return nil, "could not start the call"
	}

	record, err := e.calls.AwaitCompletion(ctx, session, e.callTimeout)
	if err != nil {
		return nil, "the call did not finish in time"
	}

	transcript, ok := FormatRecord(record)
	if !ok {
		return nil, "the call produced no usable transcript"
	}

	outcome := e.evaluator.Evaluate(ctx, task.Instructions, place, transcript)
	return &outcome, ""
}

func successText(place domain.Place, outcome *domain.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Success at %s! %s", place.Name, outcome.Reason)
	if len(outcome.Details) > 0 {
		b.WriteString("\n\nDetails:")
		for _, key := range []string{"date", "time", "service", "price", "additional_info"} {
			if v, ok := outcome.Details[key]; ok && v != "" {
				fmt.Fprintf(&b, "\n- %s: %s", key, v)
			}
		}
	}
	return b.String()
}

func summaryText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "All tasks processed: %d of %d succeeded.", s.Successful, len(s.Tasks))
	for _, t := range s.Tasks {
		status := "no place could help"
		if t.Success {
			status = "done"
		}
		fmt.Fprintf(&b, "\n- task %s: %s (%d call(s))", t.TaskID, status, len(t.Attempts))
	}
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
