// Package collector owns the per-tenant live session lifecycle: at most one
// subscription to the live source per tenant, with idle, connecting, live and
// error states. Event delivery order per tenant is preserved by a single
// reader goroutine per session.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
	"github.com/kim-jongsoung/tikfind/internal/relay"
)

// SessionInfo is the externally visible snapshot of a tenant's session.
type SessionInfo struct {
	State          domain.SessionState   `json:"state"`
	ExternalHandle string                `json:"externalHandle,omitempty"`
	StartedAt      time.Time             `json:"startedAt,omitzero"`
	Settings       domain.TenantSettings `json:"settings"`
}

type session struct {
	cancel context.CancelFunc
	info   SessionInfo
}

func (s *session) active() bool {
	return s.info.State == domain.StateConnecting || s.info.State == domain.StateLive
}

// Manager enforces the one-session-per-tenant invariant over a LiveSource.
type Manager struct {
	source domain.LiveSource
	relay  *relay.Relay
	clock  clockwork.Clock

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup
}

func NewManager(source domain.LiveSource, r *relay.Relay, clock clockwork.Clock) *Manager {
	return &Manager{
		source:   source,
		relay:    r,
		clock:    clock,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Start opens a session for the tenant. A second Start while a session is
// connecting or live fails with domain.ErrAlreadyConnected; starting over an
// idle or errored session is allowed.
func (m *Manager) Start(ctx context.Context, tenantID uuid.UUID, externalHandle string, settings domain.TenantSettings) error {
	m.mu.Lock()
	if existing, ok := m.sessions[tenantID]; ok && existing.active() {
		m.mu.Unlock()
		metrics.SessionStartsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrAlreadyConnected
	}

	// The session context outlives the Start request; it is the lifetime
	// marker every in-flight operation of this session checks.
	sessionCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		cancel: cancel,
		info: SessionInfo{
			State:          domain.StateConnecting,
			ExternalHandle: externalHandle,
			StartedAt:      m.clock.Now(),
			Settings:       settings,
		},
	}
	m.sessions[tenantID] = sess
	m.mu.Unlock()

	events, err := m.source.Subscribe(sessionCtx, tenantID, externalHandle)
	if err != nil {
		cancel()
		m.mu.Lock()
		sess.info.State = domain.StateError
		m.mu.Unlock()
		metrics.SessionStartsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to subscribe to live source: %w", err)
	}

	m.relay.OnSessionStart(sessionCtx, tenantID, externalHandle, settings)
	metrics.SessionStartsTotal.WithLabelValues("ok").Inc()
	metrics.SessionsActive.Inc()
	slog.Info("Live session starting", "tenant_id", tenantID, "external_handle", externalHandle)

	m.wg.Add(1)
	go m.run(sessionCtx, tenantID, sess, events)
	return nil
}

// Stop ends the tenant's session, broadcasts a disconnected status and
// returns the state to idle. Stopping an idle tenant is a no-op.
func (m *Manager) Stop(tenantID uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[tenantID]
	if !ok || sess.info.State == domain.StateIdle {
		m.mu.Unlock()
		return
	}
	wasActive := sess.active()
	sess.info.State = domain.StateIdle
	sess.info.StartedAt = time.Time{}
	m.mu.Unlock()

	// The disconnected status must go out before the session context is
	// cancelled, or the relay drops it as stale.
	if wasActive {
		m.relay.HandleEvent(tenantID, statusEvent(false))
	}
	sess.cancel()

	m.relay.OnSessionStop(tenantID)
	if wasActive {
		metrics.SessionsActive.Dec()
	}
	slog.Info("Live session stopped", "tenant_id", tenantID)
}

// Info reports the tenant's session snapshot; unknown tenants are idle.
func (m *Manager) Info(tenantID uuid.UUID) SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[tenantID]; ok {
		return sess.info
	}
	return SessionInfo{State: domain.StateIdle}
}

// Shutdown stops all sessions and waits for their readers to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, tenantID uuid.UUID, sess *session, events <-chan domain.LiveEvent) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				m.sourceClosed(ctx, tenantID, sess)
				return
			}
			m.markLive(tenantID, sess)
			m.relay.HandleEvent(tenantID, ev)
		}
	}
}

// markLive promotes connecting to live on the first delivered event and
// announces the connection to the tenant's dashboards.
func (m *Manager) markLive(tenantID uuid.UUID, sess *session) {
	m.mu.Lock()
	promoted := sess.info.State == domain.StateConnecting
	if promoted {
		sess.info.State = domain.StateLive
	}
	m.mu.Unlock()

	if promoted {
		slog.Info("Live session established", "tenant_id", tenantID)
		m.relay.HandleEvent(tenantID, statusEvent(true))
	}
}

// sourceClosed handles an upstream disconnect. A close after Stop has already
// cancelled the context is expected and silent; otherwise the tenant passes
// through error and settles back at idle once teardown is done.
func (m *Manager) sourceClosed(ctx context.Context, tenantID uuid.UUID, sess *session) {
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	wasActive := sess.active()
	sess.info.State = domain.StateError
	m.mu.Unlock()

	if wasActive {
		m.relay.HandleEvent(tenantID, statusEvent(false))
	}
	sess.cancel()

	m.relay.OnSessionStop(tenantID)
	if wasActive {
		metrics.SessionsActive.Dec()
	}
	slog.Warn("Live source disconnected", "tenant_id", tenantID)

	m.mu.Lock()
	sess.info.State = domain.StateIdle
	sess.info.StartedAt = time.Time{}
	m.mu.Unlock()
}

func statusEvent(isLive bool) domain.LiveEvent {
	return domain.LiveEvent{
		Kind:   domain.EventStatus,
		Status: &domain.StatusEvent{IsLive: isLive},
	}
}
