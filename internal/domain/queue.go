package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PriorityTier is the discrete enqueue-priority class governing queue order.
// Higher values sort first.
type PriorityTier int

const (
	TierNormal PriorityTier = iota
	TierHigh
	TierVIP
)

func (t PriorityTier) String() string {
	switch t {
	case TierVIP:
		return "vip"
	case TierHigh:
		return "high"
	default:
		return "normal"
	}
}

// MarshalJSON emits the tier name rather than its numeric rank.
func (t PriorityTier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts the tier names MarshalJSON emits.
func (t *PriorityTier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "vip":
		*t = TierVIP
	case "high":
		*t = TierHigh
	case "normal":
		*t = TierNormal
	default:
		return fmt.Errorf("unknown priority tier %q", name)
	}
	return nil
}

// RequesterInfo carries the requester attributes the tier scoring function
// and cooldown bookkeeping need.
type RequesterInfo struct {
	Handle   string
	UniqueID string
	IsVIP    bool
	Level    int
}

// QueuedRequest is one accepted song request in a tenant's queue.
type QueuedRequest struct {
	ID              uuid.UUID    `json:"id"`
	Title           string       `json:"title"`
	Artist          string       `json:"artist"`
	ExternalMediaID string       `json:"externalMediaId,omitempty"`
	ThumbnailURL    string       `json:"thumbnailUrl,omitempty"`
	Requester       string       `json:"requester"`
	RequesterID     string       `json:"requesterId"`
	Tier            PriorityTier `json:"tier"`
	EnqueuedAt      time.Time    `json:"enqueuedAt"`
	Played          bool         `json:"played"`
}

// EnqueueResult reports the outcome of an enqueue attempt. A cooldown
// rejection sets Accepted=false and a strictly positive RemainingMinutes.
type EnqueueResult struct {
	Accepted         bool
	Request          *QueuedRequest
	Position         int
	QueueLength      int
	RemainingMinutes int
}
