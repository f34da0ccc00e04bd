package file_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasquez/festa-agent/internal/adapters/storage/file"
	"github.com/avasquez/festa-agent/internal/domain"
)

func newStore(t *testing.T) *file.Store {
	t.Helper()
	s, err := file.NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestConversationLifecycle(t *testing.T) {
	s := newStore(t)
	now := time.Now().Truncate(time.Second)

	conv := &domain.Conversation{
		ID:        "conv-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateConversation(conv))
	assert.Error(t, s.CreateConversation(conv), "double create is rejected")
	assert.True(t, s.ConversationExists("conv-1"))
	assert.False(t, s.ConversationExists("conv-2"))

	msg := &domain.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		Role:           domain.RoleUser,
		Text:           "I want to organize a birthday party",
		CreatedAt:      now,
		Meta:           map[string]any{domain.MetaKeepPolling: false},
	}
	require.NoError(t, s.AppendMessage("conv-1", msg))

	got, err := s.GetConversation("conv-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "I want to organize a birthday party", got.Messages[0].Text)
	assert.Equal(t, "I want to organize a birthday party", got.Title, "first user message titles the conversation")
	assert.Equal(t, false, got.Messages[0].Meta[domain.MetaKeepPolling])

	ok, err := s.DeleteConversation("conv-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetConversation("conv-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err = s.DeleteConversation("conv-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	s := newStore(t)

	err := s.AppendMessage("missing", &domain.Message{ID: "msg-1", Role: domain.RoleUser, Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListConversationsNewestFirst(t *testing.T) {
	s := newStore(t)
	base := time.Now().Add(-time.Hour)

	for i, id := range []domain.ConversationID{"conv-a", "conv-b", "conv-c"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateConversation(&domain.Conversation{
			ID:        id,
			CreatedAt: ts,
			UpdatedAt: ts,
		}))
	}

	out, err := s.ListConversations()
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, domain.ConversationID("conv-c"), out[0].ID)
	assert.Equal(t, domain.ConversationID("conv-a"), out[2].ID)
}

// A corrupted file must not take down the whole listing.
func TestListConversationsSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := file.NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.CreateConversation(&domain.Conversation{ID: "conv-1"}))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "conversations", "conversation_broken.json"),
		[]byte("{not json"), 0o644))

	out, err := s.ListConversations()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ConversationID("conv-1"), out[0].ID)
}

func TestPlanRoundTrip(t *testing.T) {
	s := newStore(t)
	now := time.Now().Truncate(time.Second)

	plan := &domain.Plan{
		ID:             "plan-1",
		ConversationID: "conv-1",
		Request:        "a birthday party for 20",
		Text:           "EVENT PLAN\n\n1. Reserve a venue",
		State:          domain.StateGathering,
		Gathered:       map[string]string{"full_name": "Ana Gomez", "location": "Madrid"},
		Feedback:       []string{"cheaper", "add balloons"},
		GatherLog: []domain.GatherTurn{
			{Role: domain.RoleAssistant, Text: "Your full name?"},
			{Role: domain.RoleUser, Text: "Ana Gomez"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SavePlan(plan))

	got, err := s.GetPlan("conv-1")
	require.NoError(t, err)

	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.State, got.State)
	assert.Equal(t, plan.Gathered, got.Gathered)
	assert.Equal(t, plan.Feedback, got.Feedback, "feedback order survives")
	assert.Equal(t, plan.GatherLog, got.GatherLog)
	assert.True(t, plan.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetPlan("conv-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := s.DeletePlan("conv-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	s, err := file.NewStore(dir)
	require.NoError(t, err)

	plan := &domain.Plan{ID: "plan-1", ConversationID: "conv-1", State: domain.StateInitial}
	require.NoError(t, s.SavePlan(plan))
	plan.State = domain.StatePlanning
	require.NoError(t, s.SavePlan(plan))

	got, err := s.GetPlan("conv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePlanning, got.State)

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, "plans", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestTaskRoundTrip(t *testing.T) {
	s := newStore(t)

	tasks := []*domain.Task{
		{
			ID:           "task-1",
			PlanID:       "plan-1",
			Instructions: "Reserve a room.",
			Places: []domain.Place{
				{Name: "La Terraza", Phone: "+34 910 000 001", Website: "www.laterraza.example"},
				{Name: "Sala Norte", Phone: "+34 910 000 002"},
			},
		},
		{
			ID:           "task-2",
			PlanID:       "plan-1",
			Instructions: "Order the cake.",
			Places:       []domain.Place{{Name: "Dulce Horno", Phone: "+34 910 000 003"}},
		},
	}
	require.NoError(t, s.SaveTasks("plan-1", tasks))

	got, err := s.GetTasks("plan-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, tasks[0].Places, got[0].Places)
	assert.Equal(t, "Order the cake.", got[1].Instructions)

	// Missing task files mean "no tasks yet", not an error.
	none, err := s.GetTasks("plan-2")
	require.NoError(t, err)
	assert.Nil(t, none)
}
