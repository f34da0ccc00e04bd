package gather_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/adapters/llm"
	"github.com/avasquez/festa-agent/internal/app/gather"
	"github.com/avasquez/festa-agent/internal/domain"
)

func TestParseReplyPlainQuestion(t *testing.T) {
	res := gather.ParseReply("What is your full name?")

	assert.False(t, res.Complete)
	assert.Equal(t, "What is your full name?", res.Text)
	assert.Nil(t, res.Data)
}

func TestParseReplyCompletionBlock(t *testing.T) {
	reply := "```json\n" +
		`{"full_name": "Ana Gomez", "phone": "+34 600 000 001", "date": "2025-11-02", "time": "18:00", "location": "Madrid"}` +
		"\n```"

	res := gather.ParseReply(reply)

	require.True(t, res.Complete)
	assert.Equal(t, "Ana Gomez", res.Data["full_name"])
	assert.Equal(t, "Madrid", res.Data["location"])
}

func TestParseReplyBareFence(t *testing.T) {
	reply := "```\n{\"full_name\": \"Bo\", \"phone\": \"1\", \"date\": \"d\", \"time\": \"t\", \"location\": \"l\"}\n```"

	res := gather.ParseReply(reply)
	assert.True(t, res.Complete)
	assert.Equal(t, "Bo", res.Data["full_name"])
}

// A malformed JSON block must not fail the exchange: the block is
// stripped and the surrounding prose is shown as a chat turn.
func TestParseReplyMalformedBlockFallsBackToChat(t *testing.T) {
	reply := "Almost there!\n```json\n{\"full_name\": oops\n```\nWhat day works for you?"

	res := gather.ParseReply(reply)

	assert.False(t, res.Complete)
	assert.NotContains(t, res.Text, "oops")
	assert.Contains(t, res.Text, "What day works for you?")
}

func TestParseReplyStringifiesNonStringValues(t *testing.T) {
	reply := "```json\n{\"full_name\": \"Cy\", \"phone\": 5550100, \"date\": \"d\", \"time\": \"t\", \"location\": null}\n```"

	res := gather.ParseReply(reply)

	require.True(t, res.Complete)
	assert.Equal(t, "5550100", res.Data["phone"])
	_, hasLocation := res.Data["location"]
	assert.False(t, hasLocation, "null values are dropped")
}

func TestStepBuildsHistoryFromLog(t *testing.T) {
	ctx := context.Background()
	svc := gather.NewService(llm.NewMockClient("What date?"))

	log := []domain.GatherTurn{
		{Role: domain.RoleAssistant, Text: "Your full name?"},
		{Role: domain.RoleUser, Text: "Ana Gomez"},
	}

	res, err := svc.Step(ctx, "EVENT PLAN\n1. Book a room", "a birthday party", log, "Ana Gomez")
	require.NoError(t, err)

	assert.False(t, res.Complete)
	assert.Equal(t, "What date?", res.Text)
}

func TestStartReturnsFirstQuestion(t *testing.T) {
	ctx := context.Background()
	svc := gather.NewService(llm.NewMockClient("Your full name?"))

	question, err := svc.Start(ctx, "EVENT PLAN\n1. Book a room", "a birthday party")
	require.NoError(t, err)
	assert.Equal(t, "Your full name?", question)
}
