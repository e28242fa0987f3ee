package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatEvent(text string) domain.LiveEvent {
	return domain.LiveEvent{
		Kind: domain.EventChat,
		Chat: &domain.ChatEvent{RequesterHandle: "viewer1", Text: text},
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	s := NewSource(8)
	tenantID := uuid.New()

	ch, err := s.Subscribe(context.Background(), tenantID, "streamer42")
	require.NoError(t, err)

	require.NoError(t, s.Publish(tenantID, chatEvent("first")))
	require.NoError(t, s.Publish(tenantID, chatEvent("second")))

	assert.Equal(t, "first", (<-ch).Chat.Text)
	assert.Equal(t, "second", (<-ch).Chat.Text)
}

func TestPublishWithoutSession(t *testing.T) {
	s := NewSource(8)

	err := s.Publish(uuid.New(), chatEvent("nobody listening"))
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestDuplicateSubscribeRejected(t *testing.T) {
	s := NewSource(8)
	tenantID := uuid.New()

	_, err := s.Subscribe(context.Background(), tenantID, "streamer42")
	require.NoError(t, err)

	_, err = s.Subscribe(context.Background(), tenantID, "streamer42")
	assert.ErrorIs(t, err, domain.ErrAlreadyConnected)
}

func TestCancelClosesChannelAndFreesTenant(t *testing.T) {
	s := NewSource(8)
	tenantID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Subscribe(ctx, tenantID, "streamer42")
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open, "channel must close on cancellation")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}

	// Tenant slot is free again.
	assert.Eventually(t, func() bool {
		_, err := s.Subscribe(context.Background(), tenantID, "streamer42")
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestFullBufferShedsNewestEvent(t *testing.T) {
	s := NewSource(2)
	tenantID := uuid.New()

	ch, err := s.Subscribe(context.Background(), tenantID, "streamer42")
	require.NoError(t, err)

	require.NoError(t, s.Publish(tenantID, chatEvent("one")))
	require.NoError(t, s.Publish(tenantID, chatEvent("two")))
	require.NoError(t, s.Publish(tenantID, chatEvent("dropped")), "overflow is not an error")

	assert.Equal(t, "one", (<-ch).Chat.Text)
	assert.Equal(t, "two", (<-ch).Chat.Text)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.Chat.Text)
	default:
	}
}

func TestTenantIsolation(t *testing.T) {
	s := NewSource(8)
	a, b := uuid.New(), uuid.New()

	chA, err := s.Subscribe(context.Background(), a, "one")
	require.NoError(t, err)
	chB, err := s.Subscribe(context.Background(), b, "two")
	require.NoError(t, err)

	require.NoError(t, s.Publish(a, chatEvent("for a")))

	assert.Equal(t, "for a", (<-chA).Chat.Text)
	select {
	case <-chB:
		t.Fatal("event leaked across tenants")
	default:
	}
}
