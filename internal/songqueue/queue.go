// Package songqueue implements the per-tenant priority-ordered request queue
// with per-requester cooldown enforcement. All state is in-memory and
// process-lifetime only; durability is an explicit non-goal.
package songqueue

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

// highLevelThreshold is the requester level at or above which an enqueue is
// scored TierHigh.
const highLevelThreshold = 10

// TierFor computes the priority tier from requester attributes. A VIP flag
// wins over everything; a level at or above the threshold scores high.
func TierFor(r domain.RequesterInfo) domain.PriorityTier {
	switch {
	case r.IsVIP:
		return domain.TierVIP
	case r.Level >= highLevelThreshold:
		return domain.TierHigh
	default:
		return domain.TierNormal
	}
}

type cooldownRecord struct {
	lastAccepted  time.Time
	windowMinutes int
}

type tenantQueue struct {
	requests  []domain.QueuedRequest
	cooldowns map[string]*cooldownRecord
}

// Manager owns every tenant's queue and cooldown map. Mutation happens under
// one mutex; each tenant's relay goroutine is the only writer in practice, the
// lock covers the dashboard API reaching in from HTTP handlers.
type Manager struct {
	mu                     sync.Mutex
	clock                  clockwork.Clock
	tenants                map[uuid.UUID]*tenantQueue
	defaultCooldownMinutes int
}

// NewManager creates a queue manager. defaultCooldownMinutes applies to
// requesters that never adjusted their window; zero disables the check.
func NewManager(clock clockwork.Clock, defaultCooldownMinutes int) *Manager {
	return &Manager{
		clock:                  clock,
		tenants:                make(map[uuid.UUID]*tenantQueue),
		defaultCooldownMinutes: defaultCooldownMinutes,
	}
}

func (m *Manager) tenant(tenantID uuid.UUID) *tenantQueue {
	tq, ok := m.tenants[tenantID]
	if !ok {
		tq = &tenantQueue{cooldowns: make(map[string]*cooldownRecord)}
		m.tenants[tenantID] = tq
	}
	return tq
}

// Enqueue computes the requester's tier, enforces the cooldown window and, on
// acceptance, inserts the request and re-sorts the queue by
// (tier desc, enqueue time asc).
func (m *Manager) Enqueue(tenantID uuid.UUID, song domain.ResolvedSong, requester domain.RequesterInfo) domain.EnqueueResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq := m.tenant(tenantID)
	now := m.clock.Now()

	rec, ok := tq.cooldowns[requester.UniqueID]
	if !ok {
		rec = &cooldownRecord{windowMinutes: m.defaultCooldownMinutes}
		tq.cooldowns[requester.UniqueID] = rec
	}

	if rec.windowMinutes > 0 && !rec.lastAccepted.IsZero() {
		window := time.Duration(rec.windowMinutes) * time.Minute
		if elapsed := now.Sub(rec.lastAccepted); elapsed < window {
			remaining := int(math.Ceil((window - elapsed).Minutes()))
			if remaining < 1 {
				remaining = 1
			}
			metrics.QueueEnqueuesTotal.WithLabelValues("cooldown").Inc()
			return domain.EnqueueResult{
				Accepted:         false,
				QueueLength:      len(tq.requests),
				RemainingMinutes: remaining,
			}
		}
	}

	rec.lastAccepted = now

	req := domain.QueuedRequest{
		ID:              uuid.New(),
		Title:           song.Title,
		Artist:          song.Artist,
		ExternalMediaID: song.ExternalMediaID,
		ThumbnailURL:    song.ThumbnailURL,
		Requester:       requester.Handle,
		RequesterID:     requester.UniqueID,
		Tier:            TierFor(requester),
		EnqueuedAt:      now,
	}
	tq.requests = append(tq.requests, req)

	// Stable sort so an explicit move of an equal-tier, equal-time pair is not
	// reshuffled arbitrarily.
	sort.SliceStable(tq.requests, func(i, j int) bool {
		a, b := tq.requests[i], tq.requests[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		return a.EnqueuedAt.Before(b.EnqueuedAt)
	})

	position := 0
	for i := range tq.requests {
		if tq.requests[i].ID == req.ID {
			position = i + 1
			break
		}
	}

	metrics.QueueEnqueuesTotal.WithLabelValues("accepted").Inc()
	metrics.QueueDepth.WithLabelValues(tenantID.String()).Set(float64(len(tq.requests)))

	return domain.EnqueueResult{
		Accepted:    true,
		Request:     &req,
		Position:    position,
		QueueLength: len(tq.requests),
	}
}

// List returns the tenant's queue in its current order. The returned slice is
// a copy; callers cannot mutate queue state through it.
func (m *Manager) List(tenantID uuid.UUID) []domain.QueuedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq, ok := m.tenants[tenantID]
	if !ok {
		return []domain.QueuedRequest{}
	}
	out := make([]domain.QueuedRequest, len(tq.requests))
	copy(out, tq.requests)
	return out
}

// Remove deletes a request by id without re-sorting.
func (m *Manager) Remove(tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq, ok := m.tenants[tenantID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	for i := range tq.requests {
		if tq.requests[i].ID == id {
			tq.requests = append(tq.requests[:i], tq.requests[i+1:]...)
			metrics.QueueDepth.WithLabelValues(tenantID.String()).Set(float64(len(tq.requests)))
			return nil
		}
	}
	return domain.ErrRequestNotFound
}

// MarkPlayed flags a request as played in place; order is untouched.
func (m *Manager) MarkPlayed(tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq, ok := m.tenants[tenantID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	for i := range tq.requests {
		if tq.requests[i].ID == id {
			tq.requests[i].Played = true
			return nil
		}
	}
	return domain.ErrRequestNotFound
}

// Move repositions a request at the bounds-clamped target index. The
// tier/time sort is deliberately not re-applied; the manual order persists
// until the next enqueue.
func (m *Manager) Move(tenantID, id uuid.UUID, newPosition int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq, ok := m.tenants[tenantID]
	if !ok {
		return domain.ErrRequestNotFound
	}

	current := -1
	for i := range tq.requests {
		if tq.requests[i].ID == id {
			current = i
			break
		}
	}
	if current == -1 {
		return domain.ErrRequestNotFound
	}

	req := tq.requests[current]
	tq.requests = append(tq.requests[:current], tq.requests[current+1:]...)

	if newPosition < 0 {
		newPosition = 0
	}
	if newPosition > len(tq.requests) {
		newPosition = len(tq.requests)
	}

	tq.requests = append(tq.requests, domain.QueuedRequest{})
	copy(tq.requests[newPosition+1:], tq.requests[newPosition:])
	tq.requests[newPosition] = req
	return nil
}

// Clear drops the tenant's entire queue.
func (m *Manager) Clear(tenantID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tq, ok := m.tenants[tenantID]; ok {
		tq.requests = nil
		metrics.QueueDepth.WithLabelValues(tenantID.String()).Set(0)
	}
}

// SkipAbsent removes queue heads whose requester is no longer among the
// active viewers, repeating until the head's requester is present or the
// queue is empty. Returns the skipped requests.
func (m *Manager) SkipAbsent(tenantID uuid.UUID, activeViewers map[string]struct{}) []domain.QueuedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	tq, ok := m.tenants[tenantID]
	if !ok {
		return nil
	}

	var skipped []domain.QueuedRequest
	for len(tq.requests) > 0 {
		head := tq.requests[0]
		if _, present := activeViewers[head.RequesterID]; present {
			break
		}
		skipped = append(skipped, head)
		tq.requests = tq.requests[1:]
	}
	if len(skipped) > 0 {
		metrics.QueueDepth.WithLabelValues(tenantID.String()).Set(float64(len(tq.requests)))
	}
	return skipped
}

// SetCooldownWindow adjusts a requester's cooldown window in minutes.
// Zero disables the check for that requester entirely.
func (m *Manager) SetCooldownWindow(tenantID uuid.UUID, requesterID string, minutes int) {
	if minutes < 0 {
		minutes = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tq := m.tenant(tenantID)
	rec, ok := tq.cooldowns[requesterID]
	if !ok {
		rec = &cooldownRecord{}
		tq.cooldowns[requesterID] = rec
	}
	rec.windowMinutes = minutes
}
