package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodPost, "/api/sessions/"+f.tenantID.String()+"/start",
		`{"externalHandle": "streamer42", "settings": {"coachingEnabled": true, "targetLanguage": "ko"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var info struct {
		State          string `json:"state"`
		ExternalHandle string `json:"externalHandle"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "connecting", info.State)
	assert.Equal(t, "streamer42", info.ExternalHandle)
}

func TestStartSessionTwiceConflicts(t *testing.T) {
	f := newServerFixture(t)
	f.startSession(t)

	rec := f.do(http.MethodPost, "/api/sessions/"+f.tenantID.String()+"/start",
		`{"externalHandle": "streamer42"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartSessionValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodPost, "/api/sessions/not-a-uuid/start", `{"externalHandle": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/sessions/"+f.tenantID.String()+"/start",
		`{"externalHandle": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStopSessionIdempotent(t *testing.T) {
	f := newServerFixture(t)
	f.startSession(t)

	for range 2 {
		rec := f.do(http.MethodPost, "/api/sessions/"+f.tenantID.String()+"/stop", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var info struct {
			State string `json:"state"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "idle", info.State)
	}
}

func TestGetSessionIdle(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/api/sessions/"+f.tenantID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State string `json:"state"`
		Stats struct {
			TotalMessages int64 `json:"totalMessages"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.State)
	assert.Zero(t, resp.Stats.TotalMessages)
}

func TestGetSessionActive(t *testing.T) {
	f := newServerFixture(t)
	f.startSession(t)

	rec := f.do(http.MethodGet, "/api/sessions/"+f.tenantID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State          string `json:"state"`
		ExternalHandle string `json:"externalHandle"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "connecting", resp.State)
	assert.Equal(t, "streamer42", resp.ExternalHandle)
}
