package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageCreatedEvent(t *testing.T) {
	dir := t.TempDir()

	body, err := json.Marshal(MatchCreatedEvent{
		MatchID:      "aabbcc",
		InitiatorID:  7,
		Username:     "kim",
		ActivityType: "soccer",
		StadiumName:  "alpha",
		Players:      []string{"kim", "ahn"},
		CreatedAt:    "2026-08-31T10:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, handleMessage(dir, body))

	got, err := os.ReadFile(filepath.Join(dir, "match.log"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "Match created")
	assert.Contains(t, string(got), "match_id=aabbcc")
	assert.Contains(t, string(got), "players=[kim,ahn]")
}

func TestHandleMessageCancelledEvent(t *testing.T) {
	dir := t.TempDir()

	body, err := json.Marshal(MatchCancelledEvent{
		MatchID:     "aabbcc",
		InitiatorID: 7,
		StadiumName: "alpha",
		Players:     2,
		CancelledAt: "2026-08-31T11:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, handleMessage(dir, body))

	got, err := os.ReadFile(filepath.Join(dir, "match.log"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "Match cancelled")
	assert.Contains(t, string(got), "players=2")
}

func TestHandleMessageAppendsBothEventTypes(t *testing.T) {
	dir := t.TempDir()

	created, err := json.Marshal(MatchCreatedEvent{MatchID: "m1", CreatedAt: "2026-08-31T10:00:00Z"})
	require.NoError(t, err)
	cancelled, err := json.Marshal(MatchCancelledEvent{MatchID: "m1", CancelledAt: "2026-08-31T11:00:00Z"})
	require.NoError(t, err)

	require.NoError(t, handleMessage(dir, created))
	require.NoError(t, handleMessage(dir, cancelled))

	got, err := os.ReadFile(filepath.Join(dir, "match.log"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "Match created")
	assert.Contains(t, string(got), "Match cancelled")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	err := handleMessage(dir, []byte("not json"))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "match.log"))
	assert.True(t, os.IsNotExist(statErr))
}
