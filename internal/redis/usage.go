package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kim-jongsoung/tikfind/internal/domain"
)

const (
	fieldMessages       = "messages"
	fieldSongRequests   = "song_requests"
	fieldCoachResponses = "coach_responses"
	fieldGifts          = "gifts"
)

// UsageStore implements domain.UsageStore as a Redis hash per tenant.
// Counters accumulate across sessions.
type UsageStore struct {
	client *Client
}

func NewUsageStore(client *Client) *UsageStore {
	return &UsageStore{client: client}
}

func usageKey(tenantID uuid.UUID) string {
	return "tikfind:usage:" + tenantID.String()
}

func (s *UsageStore) incr(ctx context.Context, tenantID uuid.UUID, field string, delta int64) error {
	if err := s.client.rdb.HIncrBy(ctx, usageKey(tenantID), field, delta).Err(); err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return nil
}

func (s *UsageStore) IncrMessages(ctx context.Context, tenantID uuid.UUID) error {
	return s.incr(ctx, tenantID, fieldMessages, 1)
}

func (s *UsageStore) IncrSongRequests(ctx context.Context, tenantID uuid.UUID) error {
	return s.incr(ctx, tenantID, fieldSongRequests, 1)
}

func (s *UsageStore) IncrCoachResponses(ctx context.Context, tenantID uuid.UUID) error {
	return s.incr(ctx, tenantID, fieldCoachResponses, 1)
}

func (s *UsageStore) IncrGifts(ctx context.Context, tenantID uuid.UUID, count int64) error {
	return s.incr(ctx, tenantID, fieldGifts, count)
}

// GetStats reads all counters for a tenant. A tenant with no usage yet gets
// zeroes, not an error.
func (s *UsageStore) GetStats(ctx context.Context, tenantID uuid.UUID) (domain.TenantStats, error) {
	values, err := s.client.rdb.HGetAll(ctx, usageKey(tenantID)).Result()
	if err != nil {
		return domain.TenantStats{}, fmt.Errorf("failed to read usage stats: %w", err)
	}

	parse := func(field string) int64 {
		n, _ := strconv.ParseInt(values[field], 10, 64)
		return n
	}
	return domain.TenantStats{
		TotalMessages:  parse(fieldMessages),
		SongRequests:   parse(fieldSongRequests),
		CoachResponses: parse(fieldCoachResponses),
		Gifts:          parse(fieldGifts),
	}, nil
}
