package executor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/app/executor"
	"github.com/avasquez/festa-agent/internal/domain"
)

func TestFormatRecordRoleMessage(t *testing.T) {
	rec := &domain.CallRecord{
		Status: "done",
		Transcript: []domain.TranscriptItem{
			{Role: "agent", Message: "Hello, I'd like to book a table."},
			{Role: "user", Message: "For how many people?"},
		},
	}

	out, ok := executor.FormatRecord(rec)
	require.True(t, ok)
	assert.Equal(t, "AGENT: Hello, I'd like to book a table.\nCALLEE: For how many people?", out)
}

// Providers disagree on field names; speaker/text and content variants
// must normalize the same way.
func TestFormatRecordAlternateFields(t *testing.T) {
	rec := &domain.CallRecord{
		Transcript: []domain.TranscriptItem{
			{Speaker: "agent", Text: "Good evening."},
			{Speaker: "user", Content: "Hello."},
			{Role: "system", Message: "Call ended."},
		},
	}

	out, ok := executor.FormatRecord(rec)
	require.True(t, ok)
	assert.Equal(t, "AGENT: Good evening.\nCALLEE: Hello.\nSYSTEM: Call ended.", out)
}

func TestFormatRecordSkipsEmptyItems(t *testing.T) {
	rec := &domain.CallRecord{
		Transcript: []domain.TranscriptItem{
			{Role: "agent"},
			{Role: "user", Message: "Hello?"},
		},
	}

	out, ok := executor.FormatRecord(rec)
	require.True(t, ok)
	assert.Equal(t, "CALLEE: Hello?", out)
}

func TestFormatRecordNoUsableContent(t *testing.T) {
	_, ok := executor.FormatRecord(nil)
	assert.False(t, ok)

	_, ok = executor.FormatRecord(&domain.CallRecord{Status: "done"})
	assert.False(t, ok)

	_, ok = executor.FormatRecord(&domain.CallRecord{
		Transcript: []domain.TranscriptItem{{Role: "agent"}, {Role: "user"}},
	})
	assert.False(t, ok)
}
