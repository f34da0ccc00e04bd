package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/domain"
)

func TestParseOutcomeBareJSON(t *testing.T) {
	out, ok := parseOutcome(`{"success": true, "should_continue": false, "reason": "Booked.", "confidence": 0.95}`)
	require.True(t, ok)

	assert.True(t, out.Success)
	assert.False(t, out.Continue)
	assert.Equal(t, "Booked.", out.Reason)
	assert.InDelta(t, 0.95, out.Confidence, 0.001)
}

func TestParseOutcomeFencedJSON(t *testing.T) {
	reply := "Here is my verdict:\n```json\n{\"success\": false, \"should_continue\": true, \"reason\": \"No availability.\", \"confidence\": 0.8}\n```"

	out, ok := parseOutcome(reply)
	require.True(t, ok)
	assert.False(t, out.Success)
	assert.True(t, out.Continue)
}

func TestParseOutcomeEmbeddedObject(t *testing.T) {
	reply := `Based on the transcript, the call clearly failed. {"success": false, "should_continue": true, "reason": "They hung up.", "confidence": 0.7} Hope that helps!`

	out, ok := parseOutcome(reply)
	require.True(t, ok)
	assert.False(t, out.Success)
	assert.Equal(t, "They hung up.", out.Reason)
}

func TestParseOutcomeDefaults(t *testing.T) {
	// Missing should_continue defaults to trying the next place, and a
	// missing reason gets a placeholder.
	out, ok := parseOutcome(`{"success": false, "confidence": 0.4}`)
	require.True(t, ok)
	assert.True(t, out.Continue)
	assert.Equal(t, "No reason provided", out.Reason)
}

func TestParseOutcomeDetails(t *testing.T) {
	out, ok := parseOutcome(`{
		"success": true, "should_continue": false, "reason": "Booked.", "confidence": 0.9,
		"appointment_details": {"date": "2025-11-02", "time": "18:00", "price": 500, "additional_info": null}
	}`)
	require.True(t, ok)

	assert.Equal(t, "2025-11-02", out.Details["date"])
	assert.Equal(t, "500", out.Details["price"])
	_, hasInfo := out.Details["additional_info"]
	assert.False(t, hasInfo, "null details are dropped")
}

func TestParseOutcomeNoJSON(t *testing.T) {
	_, ok := parseOutcome("The call went fine, I think.")
	assert.False(t, ok)
}

func TestHeuristicOutcome(t *testing.T) {
	success := heuristicOutcome("AGENT: I'd like a table.\nCALLEE: Confirmed, see you then!")
	assert.True(t, success.Success)
	assert.False(t, success.Continue)
	assert.InDelta(t, 0.5, success.Confidence, 0.001)

	failure := heuristicOutcome("CALLEE: Unfortunately we are fully booked.")
	assert.False(t, failure.Success)
	assert.True(t, failure.Continue)

	ambiguous := heuristicOutcome("CALLEE: Please hold.")
	assert.False(t, ambiguous.Success)
	assert.True(t, ambiguous.Continue)
}

type brokenLLM struct{}

func (brokenLLM) Generate(context.Context, domain.GenerateRequest) (string, error) {
	return "", errors.New("model unavailable")
}

// A failed evaluation degrades to transcript heuristics rather than
// failing the attempt.
func TestEvaluateFallsBackToHeuristics(t *testing.T) {
	ev := NewEvaluator(brokenLLM{})

	out := ev.Evaluate(context.Background(), "Reserve a room.",
		domain.Place{Name: "La Terraza", Phone: "+34 910 000 001"},
		"CALLEE: We have you down for Saturday.")

	assert.True(t, out.Success)
	assert.False(t, out.Continue)
	assert.InDelta(t, 0.5, out.Confidence, 0.001)
}

func TestParsePrecedenceFencedOverProse(t *testing.T) {
	out, ok := parseOutcome(parseOutcomeMixedFixture)
	require.True(t, ok)
	assert.True(t, out.Success)
}

const parseOutcomeMixedFixture = "Verdict below.\n" +
	"```json\n{\"success\": true, \"should_continue\": false, \"reason\": \"Booked.\", \"confidence\": 0.9}\n```\n" +
	"Some trailing commentary."
