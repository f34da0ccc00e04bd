package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const evaluationPromptTemplate = `You are an expert at judging AI phone calls. Decide whether the call achieved its goal.

## CALL GOAL:
%s

## PLACE:
Name: %s
Phone: %s

## TRANSCRIPT:
%s

## TASK:
Analyze the transcript and return JSON:

1. **success** (bool): Was the goal achieved (e.g. a booking made)?
2. **should_continue** (bool): Should we call the next place?
   - false if the goal was achieved
   - true if it failed (try somewhere else)
3. **reason** (str): Short explanation (1-2 sentences)
4. **confidence** (float): Confidence 0.0-1.0
5. **appointment_details** (object): Extracted facts:
   - date: YYYY-MM-DD or null
   - time: HH:MM or null
   - service: kind of service or null
   - price: amount or null
   - additional_info: anything else or null

## FORMAT (JSON):
{
    "success": true,
    "should_continue": false,
    "reason": "Explanation",
    "confidence": 0.95,
    "appointment_details": {
        "date": "2025-12-01",
        "time": "18:30",
        "service": "Room reservation",
        "price": "500",
        "additional_info": null
    }
}

IMPORTANT:
- success=true ONLY when a booking was concretely agreed
- When in doubt, prefer should_continue=true (try somewhere else)
- Judge what actually happened, not the intent

Return ONLY the JSON.`

// Evaluator turns a normalized call transcript into an Outcome.
type Evaluator struct {
	llm domain.LLMClient
}

func NewEvaluator(llm domain.LLMClient) *Evaluator {
	return &Evaluator{llm: llm}
}

// Evaluate asks the model for a verdict on the call. If the call or its
// JSON parse fails, it degrades to transcript keyword heuristics rather
// than failing the attempt.
func (e *Evaluator) Evaluate(ctx context.Context, instructions string, target domain.Place, transcript string) domain.Outcome {
	log := observability.LoggerFromContext(ctx).With("place", target.Name)

	prompt := fmt.Sprintf(evaluationPromptTemplate, instructions, target.Name, target.Phone, transcript)

	reply, err := e.llm.Generate(ctx, domain.GenerateRequest{Prompt: prompt})
	if err != nil {
		log.Error("evaluation call failed, using heuristics", "error", err)
		return heuristicOutcome(transcript)
	}

	outcome, ok := parseOutcome(reply)
	if !ok {
		log.Warn("evaluation reply had no usable JSON, using heuristics")
		return heuristicOutcome(transcript)
	}
	return outcome
}

type outcomeDoc struct {
	Success            bool           `json:"success"`
	ShouldContinue     *bool          `json:"should_continue"`
	Reason             string         `json:"reason"`
	Confidence         float64        `json:"confidence"`
	AppointmentDetails map[string]any `json:"appointment_details"`
}

var embeddedOutcomeRe = regexp.MustCompile(`(?s)(\{[^{]*"success".*?\})`)

// parseOutcome tries, in order: a fenced JSON block, the whole reply as
// JSON, and finally any embedded object containing a "success" key.
func parseOutcome(reply string) (domain.Outcome, bool) {
	candidates := []string{}

	if m := regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```").FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, strings.TrimSpace(reply))
	if m := embeddedOutcomeRe.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, m[1])
	}

	for _, c := range candidates {
		var doc outcomeDoc
		if err := json.Unmarshal([]byte(c), &doc); err != nil {
			continue
		}
		return outcomeFromDoc(doc), true
	}
	return domain.Outcome{}, false
}

func outcomeFromDoc(doc outcomeDoc) domain.Outcome {
	out := domain.Outcome{
		Success:    doc.Success,
		Continue:   true,
		Reason:     doc.Reason,
		Confidence: doc.Confidence,
	}
	if doc.ShouldContinue != nil {
		out.Continue = *doc.ShouldContinue
	}
	if out.Reason == "" {
		out.Reason = "No reason provided"
	}
	if len(doc.AppointmentDetails) > 0 {
		out.Details = map[string]string{}
		for k, v := range doc.AppointmentDetails {
			if v == nil {
				continue
			}
			out.Details[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

var (
	successKeywords = []string{"booked", "reserved", "confirmed", "see you then", "we have you down"}
	failureKeywords = []string{"no availability", "fully booked", "closed", "unfortunately", "cannot", "can't help"}
)

func heuristicOutcome(transcript string) domain.Outcome {
	lower := strings.ToLower(transcript)

	for _, kw := range successKeywords {
		if strings.Contains(lower, kw) {
			return domain.Outcome{
				Success:    true,
				Continue:   false,
				Reason:     "Detected booking confirmation (heuristic)",
				Confidence: 0.5,
			}
		}
	}
	for _, kw := range failureKeywords {
		if strings.Contains(lower, kw) {
			return domain.Outcome{
				Continue:   true,
				Reason:     "Call did not succeed, trying the next place (heuristic)",
				Confidence: 0.5,
			}
		}
	}
	return domain.Outcome{
		Continue:   true,
		Reason:     "Ambiguous result, continuing (heuristic)",
		Confidence: 0.5,
	}
}
