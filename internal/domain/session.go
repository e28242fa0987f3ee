package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionState is the connection state of a tenant's live session.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateConnecting SessionState = "connecting"
	StateLive       SessionState = "live"
	StateError      SessionState = "error"
)

// TenantSettings are the per-session knobs supplied when a session starts.
type TenantSettings struct {
	CoachingEnabled bool   `json:"coachingEnabled"`
	TargetLanguage  string `json:"targetLanguage"`
	Persona         string `json:"persona"`
}

// LiveSource opens a per-tenant inbound event stream. The returned channel is
// closed when the upstream disconnects; cancelling ctx releases the
// subscription. At most one subscription per tenant is expected - the
// connection manager enforces that.
type LiveSource interface {
	Subscribe(ctx context.Context, tenantID uuid.UUID, externalHandle string) (<-chan LiveEvent, error)
}

// UsageStore persists per-tenant usage counters. All writes are best effort:
// callers log failures and move on, the relay path never blocks on them.
type UsageStore interface {
	IncrMessages(ctx context.Context, tenantID uuid.UUID) error
	IncrSongRequests(ctx context.Context, tenantID uuid.UUID) error
	IncrCoachResponses(ctx context.Context, tenantID uuid.UUID) error
	IncrGifts(ctx context.Context, tenantID uuid.UUID, count int64) error
	GetStats(ctx context.Context, tenantID uuid.UUID) (TenantStats, error)
}
