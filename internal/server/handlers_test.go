package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/kim-jongsoung/tikfind/internal/collector"
	"github.com/kim-jongsoung/tikfind/internal/config"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/ingest"
	"github.com/kim-jongsoung/tikfind/internal/relay"
	"github.com/kim-jongsoung/tikfind/internal/songqueue"
	"github.com/kim-jongsoung/tikfind/internal/websocket"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Broadcast(_ uuid.UUID, event string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e == event {
			n++
		}
	}
	return n
}

type stubResolver struct{}

func (stubResolver) Parse(string) (string, string, bool) { return "", "", false }

func (stubResolver) Resolve(context.Context, string, string) (*domain.ResolvedSong, error) {
	return nil, domain.ErrSongNotFound
}

type stubCoach struct{}

func (stubCoach) DetectLanguage(context.Context, string) string { return "unknown" }

func (stubCoach) Coach(context.Context, string, string, string, string, string) (*domain.CoachPayload, error) {
	return nil, nil
}

type stubUsage struct{}

func (stubUsage) IncrMessages(context.Context, uuid.UUID) error       { return nil }
func (stubUsage) IncrSongRequests(context.Context, uuid.UUID) error   { return nil }
func (stubUsage) IncrCoachResponses(context.Context, uuid.UUID) error { return nil }
func (stubUsage) IncrGifts(context.Context, uuid.UUID, int64) error   { return nil }
func (stubUsage) GetStats(context.Context, uuid.UUID) (domain.TenantStats, error) {
	return domain.TenantStats{}, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type serverFixture struct {
	srv         *Server
	broadcaster *recordingBroadcaster
	queue       *songqueue.Manager
	tenantID    uuid.UUID
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                    "0",
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     100,
		ConnectionsPerSecond:    1000,
		ConnectionBurst:         1000,
	}
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	clock := clockwork.NewRealClock()
	broadcaster := &recordingBroadcaster{}
	queue := songqueue.NewManager(clock, 0)
	source := ingest.NewSource(16)
	rel := relay.New(broadcaster, stubResolver{}, queue, stubCoach{}, stubUsage{}, clock)
	manager := collector.NewManager(source, rel, clock)
	t.Cleanup(manager.Shutdown)

	hub := websocket.NewHub()
	t.Cleanup(hub.Stop)

	srv := NewServer(testConfig(), manager, rel, queue, source, hub, stubPinger{}, stubPinger{})

	return &serverFixture{
		srv:         srv,
		broadcaster: broadcaster,
		queue:       queue,
		tenantID:    uuid.New(),
	}
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.echo.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) startSession(t *testing.T) {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/sessions/"+f.tenantID.String()+"/start",
		`{"externalHandle": "streamer42", "settings": {"coachingEnabled": false}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (f *serverFixture) enqueue(t *testing.T, title, requesterID string) uuid.UUID {
	t.Helper()
	result := f.queue.Enqueue(f.tenantID,
		domain.ResolvedSong{Title: title, Artist: "Artist", ExternalMediaID: "vid-" + title},
		domain.RequesterInfo{Handle: requesterID, UniqueID: requesterID},
	)
	require.True(t, result.Accepted)
	return result.Request.ID
}
