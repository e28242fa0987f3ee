package domain

import (
	"context"
	"time"
)

// Provenance records how a catalog entry was created.
type Provenance string

const (
	ProvenanceManual    Provenance = "manual"
	ProvenanceAutomatic Provenance = "automatic"
	ProvenanceUser      Provenance = "user-submitted"
	ProvenanceDataset   Provenance = "dataset"
)

// CatalogEntry is a persisted song previously resolved for some tenant.
// Uniqueness is enforced on ExternalMediaID; entries are soft-deactivated,
// never hard-deleted on the hot path.
type CatalogEntry struct {
	ExternalMediaID string     `json:"externalMediaId"`
	Title           string     `json:"title"`
	Artist          string     `json:"artist"`
	ThumbnailURL    string     `json:"thumbnailUrl"`
	Keywords        []string   `json:"keywords"`
	Provenance      Provenance `json:"provenance"`
	Popularity      int        `json:"popularity"`
	RequestCount    int        `json:"requestCount"`
	LastRequestedAt time.Time  `json:"lastRequestedAt"`
	IsActive        bool       `json:"isActive"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CatalogRepository is the persisted song store consulted before any external
// search. Find methods return (nil, nil) on a clean miss.
type CatalogRepository interface {
	FindExact(ctx context.Context, title, artist string) (*CatalogEntry, error)
	FindByTitle(ctx context.Context, title string) (*CatalogEntry, error)
	FindTitleSubstring(ctx context.Context, title string) (*CatalogEntry, error)
	SearchKeywords(ctx context.Context, query string, limit int) ([]CatalogEntry, error)

	// Upsert inserts a new entry; a duplicate ExternalMediaID is a no-op
	// (first writer wins).
	Upsert(ctx context.Context, entry CatalogEntry) error

	// IncrementRequestCount atomically bumps the request counter and stamps
	// last_requested_at.
	IncrementRequestCount(ctx context.Context, externalMediaID string) error
}

// SearchCandidate is one ranked result from the external search collaborator.
type SearchCandidate struct {
	ExternalMediaID string
	Title           string
	ChannelName     string
	ThumbnailURL    string
}

// SearchClient queries the external media search API. Results are ranked by
// the collaborator's own relevance; no minimum result count is guaranteed.
type SearchClient interface {
	Query(ctx context.Context, text string) ([]SearchCandidate, error)
}

// ResolvedSong is the resolver's output shape consumed by the queue.
type ResolvedSong struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	ExternalMediaID string `json:"externalMediaId"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	URL             string `json:"url,omitempty"`
	FromCatalog     bool   `json:"fromCatalog"`
}

// SongRequestResult is the structured, user-facing outcome of a song request.
// Failures are carried as Success=false plus Message; they are never raised as
// relay errors.
type SongRequestResult struct {
	Success          bool          `json:"success"`
	Message          string        `json:"message,omitempty"`
	Song             *ResolvedSong `json:"song,omitempty"`
	QueuePosition    int           `json:"queuePosition,omitempty"`
	QueueLength      int           `json:"queueLength,omitempty"`
	RemainingMinutes int           `json:"remainingMinutes,omitempty"`
}

// SongResolver parses the request grammar and runs the fallback chain.
type SongResolver interface {
	Parse(text string) (title, artist string, ok bool)
	Resolve(ctx context.Context, title, artist string) (*ResolvedSong, error)
}
