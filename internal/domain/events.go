package domain

import "github.com/google/uuid"

// EventKind tags an inbound live event from the collector.
type EventKind string

const (
	EventChat        EventKind = "chat"
	EventGift        EventKind = "gift"
	EventViewerCount EventKind = "viewer-count"
	EventStatus      EventKind = "status"
)

// LiveEvent is the tagged union delivered by a LiveSource. Exactly one of the
// payload pointers matching Kind is set; the relay handles every kind
// exhaustively at its boundary.
type LiveEvent struct {
	Kind        EventKind
	Chat        *ChatEvent
	Gift        *GiftEvent
	ViewerCount *ViewerCountEvent
	Status      *StatusEvent
}

// ChatEvent is an immutable, ephemeral chat message from the live stream.
type ChatEvent struct {
	RequesterHandle string   `json:"requesterHandle"`
	Text            string   `json:"text"`
	TimestampMs     int64    `json:"timestampMs"`
	Badges          []string `json:"badges"`
	IsVIP           bool     `json:"isVip"`
	Level           int      `json:"level"`
}

type GiftEvent struct {
	GiftName   string `json:"giftName"`
	Count      int    `json:"count"`
	FromHandle string `json:"fromHandle"`
}

type ViewerCountEvent struct {
	Count int `json:"count"`
}

type StatusEvent struct {
	IsLive bool `json:"isLive"`
}

// --- Outbound fan-out payloads, grouped by tenant on the dashboard side ---

// Fan-out event names.
const (
	FanoutChatMessage = "chat-message"
	FanoutQueueUpdate = "song-queue-update"
	FanoutViewer      = "viewer-update"
	FanoutGift        = "gift-received"
	FanoutLiveStatus  = "live-status"
)

type ChatMessagePayload struct {
	Username          string             `json:"username"`
	Message           string             `json:"message"`
	DetectedLanguage  string             `json:"detectedLanguage,omitempty"`
	CoachingPayload   *CoachPayload      `json:"coachingPayload,omitempty"`
	SongRequestResult *SongRequestResult `json:"songRequestResult,omitempty"`
	TimestampMs       int64              `json:"timestampMs"`
}

type QueueUpdatePayload struct {
	Queue []QueuedRequest `json:"queue"`
}

type ViewerUpdatePayload struct {
	ViewerCount int `json:"viewerCount"`
}

type GiftReceivedPayload struct {
	GiftName    string `json:"giftName"`
	Username    string `json:"username"`
	Count       int    `json:"count"`
	TimestampMs int64  `json:"timestampMs"`
}

type LiveStatusPayload struct {
	IsLive      bool        `json:"isLive"`
	Username    string      `json:"username"`
	TimestampMs int64       `json:"timestampMs"`
	Stats       TenantStats `json:"stats"`
}

// TenantStats are per-session counters carried on status fan-outs and mirrored
// best-effort into the usage store.
type TenantStats struct {
	TotalMessages  int64 `json:"totalMessages"`
	SongRequests   int64 `json:"songRequests"`
	CoachResponses int64 `json:"coachResponses"`
	Gifts          int64 `json:"gifts"`
}

// Broadcaster fans an event out to all dashboard subscribers of a tenant.
type Broadcaster interface {
	Broadcast(tenantID uuid.UUID, event string, payload any)
}
