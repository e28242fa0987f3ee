// Package relay is the per-tenant event pipeline between the live-stream
// collector and the dashboard fan-out. Events for one tenant are processed
// strictly in arrival order; the chat pipeline enriches messages with language
// coaching and song-request handling before a single consolidated broadcast.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
	"github.com/kim-jongsoung/tikfind/internal/songqueue"
)

const (
	msgSongNotFound = "노래를 찾을 수 없습니다"
	msgCooldown     = "%d분 후에 신청 가능합니다"
)

// tenantState is the registry entry for one running session. The session
// context is cancelled when the session stops; results arriving after that
// are dropped instead of being broadcast into the next session.
type tenantState struct {
	ctx            context.Context
	externalHandle string
	settings       domain.TenantSettings

	mu    sync.Mutex
	stats domain.TenantStats
}

func (t *tenantState) snapshot() domain.TenantStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Relay routes inbound live events to the broadcaster, the song queue and the
// coaching service. HandleEvent for a given tenant is called from a single
// goroutine; the registry itself is safe for concurrent use across tenants.
type Relay struct {
	broadcaster domain.Broadcaster
	resolver    domain.SongResolver
	queue       *songqueue.Manager
	coach       domain.CoachService
	usage       domain.UsageStore
	clock       clockwork.Clock

	mu      sync.RWMutex
	tenants map[uuid.UUID]*tenantState
}

// New creates a relay over the given collaborators. Coach and usage may be
// nil-like no-op implementations in tests but are required in production.
func New(
	broadcaster domain.Broadcaster,
	resolver domain.SongResolver,
	queue *songqueue.Manager,
	coachSvc domain.CoachService,
	usage domain.UsageStore,
	clock clockwork.Clock,
) *Relay {
	return &Relay{
		broadcaster: broadcaster,
		resolver:    resolver,
		queue:       queue,
		coach:       coachSvc,
		usage:       usage,
		clock:       clock,
		tenants:     make(map[uuid.UUID]*tenantState),
	}
}

// OnSessionStart registers a tenant's session. ctx must be the session
// context owned by the connection manager; its cancellation marks every
// in-flight operation of this session stale.
func (r *Relay) OnSessionStart(ctx context.Context, tenantID uuid.UUID, externalHandle string, settings domain.TenantSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenantID] = &tenantState{
		ctx:            ctx,
		externalHandle: externalHandle,
		settings:       settings,
	}
}

// OnSessionStop removes a tenant's session state. Queue and cooldown state
// live in the queue manager and survive the session.
func (r *Relay) OnSessionStop(tenantID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, tenantID)
}

// Stats returns the running session counters for a tenant.
func (r *Relay) Stats(tenantID uuid.UUID) (domain.TenantStats, error) {
	r.mu.RLock()
	state, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if !ok {
		return domain.TenantStats{}, domain.ErrTenantNotFound
	}
	return state.snapshot(), nil
}

// HandleEvent applies one inbound event. The caller guarantees per-tenant
// serialization; events for an unregistered tenant are dropped.
func (r *Relay) HandleEvent(tenantID uuid.UUID, ev domain.LiveEvent) {
	r.mu.RLock()
	state, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if !ok {
		metrics.RelayStaleDropsTotal.Inc()
		return
	}

	metrics.RelayEventsTotal.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case domain.EventChat:
		if ev.Chat != nil {
			r.handleChat(state, tenantID, ev.Chat)
		}
	case domain.EventGift:
		if ev.Gift != nil {
			r.handleGift(state, tenantID, ev.Gift)
		}
	case domain.EventViewerCount:
		if ev.ViewerCount != nil {
			r.broadcast(state, tenantID, domain.FanoutViewer, domain.ViewerUpdatePayload{
				ViewerCount: ev.ViewerCount.Count,
			})
		}
	case domain.EventStatus:
		if ev.Status != nil {
			r.handleStatus(state, tenantID, ev.Status)
		}
	default:
		slog.Warn("Dropping live event of unknown kind", "tenant_id", tenantID, "kind", ev.Kind)
	}
}

func (r *Relay) handleChat(state *tenantState, tenantID uuid.UUID, chat *domain.ChatEvent) {
	start := r.clock.Now()
	defer func() {
		metrics.RelayChatDuration.Observe(r.clock.Since(start).Seconds())
	}()

	state.mu.Lock()
	state.stats.TotalMessages++
	state.mu.Unlock()
	r.persistUsage(tenantID, r.usage.IncrMessages)

	payload := domain.ChatMessagePayload{
		Username:         chat.RequesterHandle,
		Message:          chat.Text,
		TimestampMs:      chat.TimestampMs,
		DetectedLanguage: r.coach.DetectLanguage(state.ctx, chat.Text),
	}

	if state.settings.CoachingEnabled {
		payload.CoachingPayload = r.runCoach(state, tenantID, chat, payload.DetectedLanguage)
	}

	// Song requests are handled regardless of the coaching outcome; a request
	// in a foreign language still gets both a coach response and a queue slot.
	if title, artist, ok := r.resolver.Parse(chat.Text); ok {
		payload.SongRequestResult = r.handleSongRequest(state, tenantID, chat, title, artist)
	}

	r.broadcast(state, tenantID, domain.FanoutChatMessage, payload)
}

func (r *Relay) handleSongRequest(state *tenantState, tenantID uuid.UUID, chat *domain.ChatEvent, title, artist string) *domain.SongRequestResult {
	state.mu.Lock()
	state.stats.SongRequests++
	state.mu.Unlock()
	r.persistUsage(tenantID, r.usage.IncrSongRequests)

	song, err := r.resolver.Resolve(state.ctx, title, artist)
	if err != nil {
		if !errors.Is(err, domain.ErrSongNotFound) {
			slog.Error("Song resolution failed",
				"tenant_id", tenantID, "title", title, "artist", artist, "error", err)
		}
		return &domain.SongRequestResult{Success: false, Message: msgSongNotFound}
	}

	requester := domain.RequesterInfo{
		Handle:   chat.RequesterHandle,
		UniqueID: chat.RequesterHandle,
		IsVIP:    chat.IsVIP,
		Level:    chat.Level,
	}
	result := r.queue.Enqueue(tenantID, *song, requester)
	if !result.Accepted {
		return &domain.SongRequestResult{
			Success:          false,
			Message:          fmt.Sprintf(msgCooldown, result.RemainingMinutes),
			RemainingMinutes: result.RemainingMinutes,
		}
	}

	r.BroadcastQueue(tenantID)

	return &domain.SongRequestResult{
		Success:       true,
		Song:          song,
		QueuePosition: result.Position,
		QueueLength:   result.QueueLength,
	}
}

func (r *Relay) runCoach(state *tenantState, tenantID uuid.UUID, chat *domain.ChatEvent, detected string) *domain.CoachPayload {
	payload, err := r.coach.Coach(state.ctx, chat.Text, detected,
		state.settings.TargetLanguage, state.settings.Persona, chat.RequesterHandle)
	if err != nil {
		slog.Error("Coaching failed", "tenant_id", tenantID, "error", err)
		return nil
	}
	if payload == nil {
		return nil
	}

	state.mu.Lock()
	state.stats.CoachResponses++
	state.mu.Unlock()
	r.persistUsage(tenantID, r.usage.IncrCoachResponses)

	return payload
}

func (r *Relay) handleGift(state *tenantState, tenantID uuid.UUID, gift *domain.GiftEvent) {
	state.mu.Lock()
	state.stats.Gifts += int64(gift.Count)
	state.mu.Unlock()

	count := int64(gift.Count)
	go func() {
		if err := r.usage.IncrGifts(context.Background(), tenantID, count); err != nil {
			metrics.UsagePersistFailures.Inc()
			slog.Error("Failed to persist gift count", "tenant_id", tenantID, "error", err)
		}
	}()

	r.broadcast(state, tenantID, domain.FanoutGift, domain.GiftReceivedPayload{
		GiftName:    gift.GiftName,
		Username:    gift.FromHandle,
		Count:       gift.Count,
		TimestampMs: r.clock.Now().UnixMilli(),
	})
}

func (r *Relay) handleStatus(state *tenantState, tenantID uuid.UUID, status *domain.StatusEvent) {
	r.broadcast(state, tenantID, domain.FanoutLiveStatus, domain.LiveStatusPayload{
		IsLive:      status.IsLive,
		Username:    state.externalHandle,
		TimestampMs: r.clock.Now().UnixMilli(),
		Stats:       state.snapshot(),
	})
}

// BroadcastQueue pushes the current queue snapshot to a tenant's dashboards.
// Also used by the HTTP queue-management handlers after mutations.
func (r *Relay) BroadcastQueue(tenantID uuid.UUID) {
	r.mu.RLock()
	state, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.broadcast(state, tenantID, domain.FanoutQueueUpdate, domain.QueueUpdatePayload{
		Queue: r.queue.List(tenantID),
	})
}

// broadcast fans out unless the session has already stopped. A result that
// outlives its session must never leak into the next one.
func (r *Relay) broadcast(state *tenantState, tenantID uuid.UUID, event string, payload any) {
	if state.ctx.Err() != nil {
		metrics.RelayStaleDropsTotal.Inc()
		return
	}
	r.broadcaster.Broadcast(tenantID, event, payload)
}

func (r *Relay) persistUsage(tenantID uuid.UUID, incr func(context.Context, uuid.UUID) error) {
	go func() {
		if err := incr(context.Background(), tenantID); err != nil {
			metrics.UsagePersistFailures.Inc()
			slog.Error("Failed to persist usage counter", "tenant_id", tenantID, "error", err)
		}
	}()
}
