package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeQueue(t *testing.T, body []byte) []domain.QueuedRequest {
	t.Helper()
	var payload domain.QueueUpdatePayload
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Queue
}

func (f *serverFixture) queuePath(suffix string) string {
	return "/api/queue/" + f.tenantID.String() + suffix
}

func TestListQueueEmpty(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, f.queuePath(""), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeQueue(t, rec.Body.Bytes()))
}

func TestRemoveRequest(t *testing.T) {
	f := newServerFixture(t)
	id := f.enqueue(t, "Dynamite", "viewer1")
	f.enqueue(t, "Butter", "viewer2")

	rec := f.do(http.MethodDelete, f.queuePath("/"+id.String()), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, f.queuePath(""), "")
	queue := decodeQueue(t, rec.Body.Bytes())
	require.Len(t, queue, 1)
	assert.Equal(t, "Butter", queue[0].Title)
}

func TestRemoveUnknownRequest(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodDelete, f.queuePath("/"+uuid.NewString()), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkPlayed(t *testing.T) {
	f := newServerFixture(t)
	id := f.enqueue(t, "Dynamite", "viewer1")

	rec := f.do(http.MethodPost, f.queuePath("/"+id.String()+"/played"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, f.queuePath(""), "")
	queue := decodeQueue(t, rec.Body.Bytes())
	require.Len(t, queue, 1)
	assert.True(t, queue[0].Played)
}

func TestMoveRequest(t *testing.T) {
	f := newServerFixture(t)
	f.enqueue(t, "First", "viewer1")
	f.enqueue(t, "Second", "viewer2")
	last := f.enqueue(t, "Third", "viewer3")

	rec := f.do(http.MethodPost, f.queuePath("/"+last.String()+"/move"), `{"newPosition": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	queue := decodeQueue(t, rec.Body.Bytes())
	require.Len(t, queue, 3)
	assert.Equal(t, "Third", queue[0].Title)
}

func TestMoveRejectsNegativePosition(t *testing.T) {
	f := newServerFixture(t)
	id := f.enqueue(t, "Dynamite", "viewer1")

	rec := f.do(http.MethodPost, f.queuePath("/"+id.String()+"/move"), `{"newPosition": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearQueue(t *testing.T) {
	f := newServerFixture(t)
	f.enqueue(t, "Dynamite", "viewer1")
	f.enqueue(t, "Butter", "viewer2")

	rec := f.do(http.MethodPost, f.queuePath("/clear"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, f.queuePath(""), "")
	assert.Empty(t, decodeQueue(t, rec.Body.Bytes()))
}

func TestSkipAbsent(t *testing.T) {
	f := newServerFixture(t)
	f.enqueue(t, "First", "gone1")
	f.enqueue(t, "Second", "gone2")
	f.enqueue(t, "Third", "present")

	rec := f.do(http.MethodPost, f.queuePath("/skip-absent"), `{"activeViewers": ["present"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Skipped []domain.QueuedRequest `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Skipped, 2)

	rec = f.do(http.MethodGet, f.queuePath(""), "")
	queue := decodeQueue(t, rec.Body.Bytes())
	require.Len(t, queue, 1)
	assert.Equal(t, "Third", queue[0].Title)
}

func TestSetCooldown(t *testing.T) {
	f := newServerFixture(t)
	f.enqueue(t, "Dynamite", "viewer1")

	rec := f.do(http.MethodPost, f.queuePath("/cooldown"), `{"requesterId": "viewer1", "minutes": 30}`)
	require.Equal(t, http.StatusOK, rec.Code)

	result := f.queue.Enqueue(f.tenantID,
		domain.ResolvedSong{Title: "Butter", Artist: "BTS"},
		domain.RequesterInfo{Handle: "viewer1", UniqueID: "viewer1"},
	)
	assert.False(t, result.Accepted)
	assert.Equal(t, 30, result.RemainingMinutes)
}

func TestSetCooldownValidation(t *testing.T) {
	f := newServerFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing requester", `{"requesterId": "", "minutes": 5}`},
		{"negative minutes", `{"requesterId": "viewer1", "minutes": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, f.queuePath("/cooldown"), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("body %s", tt.body))
		})
	}
}
