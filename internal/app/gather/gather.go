// Package gather runs the information-gathering sub-dialogue that follows
// plan confirmation. The model asks for the booking details still missing
// and signals completion with a fenced JSON block.
package gather

import (
	"context"
	"fmt"
	"strings"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const systemPromptTemplate = `You are an assistant collecting the details needed to carry out a confirmed event plan.

CONFIRMED PLAN:
%s

ORIGINAL REQUEST (details stated here are already known, do NOT ask for them again):
%s

You must collect from the user:
- Full name (for reservations)
- Contact phone number
- Exact event date (if not already given)
- Exact event time (if not already given)
- Address/location (if needed)

Ask for each missing item ONE at a time, very briefly (a few words).
No pleasantries, just the question.

When you have EVERYTHING, reply with ONLY this JSON block:
` + "```json" + `
{
    "full_name": "...",
    "phone": "...",
    "date": "...",
    "time": "...",
    "location": "..."
}
` + "```"

// Result is the outcome of one gathering exchange.
type Result struct {
	// Complete is true once all fields were collected; Data then holds
	// the flat field map.
	Complete bool
	Text     string
	Data     map[string]string
}

type Service struct {
	llm domain.LLMClient
}

func NewService(llm domain.LLMClient) *Service {
	return &Service{llm: llm}
}

// Start opens the sub-dialogue and returns the first question.
func (s *Service) Start(ctx context.Context, planText, request string) (string, error) {
	res, err := s.Step(ctx, planText, request, nil, "Start collecting the details.")
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Step forwards one user utterance into the sub-dialogue.
func (s *Service) Step(
	ctx context.Context,
	planText, request string,
	log []domain.GatherTurn,
	utterance string,
) (Result, error) {
	history := make([]*domain.Message, 0, len(log))
	for _, turn := range log {
		history = append(history, &domain.Message{Role: turn.Role, Text: turn.Text})
	}

	reply, err := s.llm.Generate(ctx, domain.GenerateRequest{
		System:  fmt.Sprintf(systemPromptTemplate, planText, request),
		History: history,
		Prompt:  utterance,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("gathering call failed", "error", err)
		return Result{}, err
	}

	return ParseReply(reply), nil
}

// ParseReply extracts the completion JSON from the model reply. A reply
// with no parseable JSON block is plain chat; a malformed block is
// stripped and the remaining prose shown, so a bad model turn never
// fails the exchange.
func ParseReply(text string) Result {
	block, rest, found := extractFencedJSON(text)
	if found {
		data := map[string]string{}
		if err := decodeStringMap(block, &data); err == nil {
			return Result{Complete: true, Text: "All set!", Data: data}
		}
		if clean := strings.TrimSpace(rest); clean != "" {
			return Result{Text: clean}
		}
	}
	return Result{Text: strings.TrimSpace(text)}
}
