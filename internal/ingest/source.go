// Package ingest implements the inbound side of the relay: the desktop
// collector POSTs live events per tenant, and each active session drains them
// through a buffered per-tenant channel. Channel order is delivery order, so
// per-tenant arrival order is preserved end to end.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

// DefaultBuffer is the per-tenant event buffer. A full buffer sheds the
// newest event rather than blocking the ingest handler.
const DefaultBuffer = 256

type subscription struct {
	ch chan domain.LiveEvent
}

// Source is an in-process domain.LiveSource fed over HTTP. Safe for
// concurrent use.
type Source struct {
	buffer int

	mu      sync.Mutex
	tenants map[uuid.UUID]*subscription
}

// NewSource creates a source with the given per-tenant buffer size. A
// non-positive size falls back to DefaultBuffer.
func NewSource(buffer int) *Source {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Source{
		buffer:  buffer,
		tenants: make(map[uuid.UUID]*subscription),
	}
}

// Subscribe registers the tenant's event channel. The channel closes when ctx
// is cancelled. The connection manager guarantees one subscription per
// tenant; a duplicate here means that invariant broke upstream.
func (s *Source) Subscribe(ctx context.Context, tenantID uuid.UUID, externalHandle string) (<-chan domain.LiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenantID]; exists {
		return nil, domain.ErrAlreadyConnected
	}

	sub := &subscription{ch: make(chan domain.LiveEvent, s.buffer)}
	s.tenants[tenantID] = sub

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.tenants[tenantID] == sub {
			delete(s.tenants, tenantID)
			close(sub.ch)
		}
	}()

	slog.Debug("Ingest subscription opened", "tenant_id", tenantID, "external_handle", externalHandle)
	return sub.ch, nil
}

// Publish delivers one event to the tenant's session. Events for tenants
// without an active session are dropped with domain.ErrTenantNotFound; a full
// buffer drops the event silently so a slow pipeline never stalls ingest.
func (s *Source) Publish(tenantID uuid.UUID, ev domain.LiveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.tenants[tenantID]
	if !ok {
		metrics.IngestDroppedTotal.WithLabelValues("no_subscriber").Inc()
		return domain.ErrTenantNotFound
	}

	select {
	case sub.ch <- ev:
		return nil
	default:
		metrics.IngestDroppedTotal.WithLabelValues("buffer_full").Inc()
		slog.Warn("Ingest buffer full, dropping event", "tenant_id", tenantID, "kind", ev.Kind)
		return nil
	}
}
