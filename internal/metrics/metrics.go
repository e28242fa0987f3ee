// Package metrics defines the Prometheus collectors for the relay engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay Metrics
var (
	// RelayEventsTotal tracks inbound live events by kind
	RelayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total inbound live events processed by kind (chat/gift/viewer-count/status)",
		},
		[]string{"kind"},
	)

	// RelayChatDuration tracks end-to-end chat pipeline latency
	RelayChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_chat_pipeline_duration_seconds",
			Help:    "Chat pipeline duration (language detect + coaching + song resolution)",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// RelayStaleDropsTotal tracks external results dropped after session teardown
	RelayStaleDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_stale_drops_total",
			Help: "Completed operations dropped because the tenant session was torn down",
		},
	)

	// UsagePersistFailures tracks best-effort usage counter write failures
	UsagePersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "usage_persist_failures_total",
			Help: "Best-effort usage counter writes that failed (logged and swallowed)",
		},
	)
)

// Resolver Metrics
var (
	// ResolverOutcomes tracks resolutions by the stage that produced the hit
	ResolverOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_outcomes_total",
			Help: "Song resolutions by outcome stage (exact/title/substring/keyword/external/external_fallback/not_found/error)",
		},
		[]string{"stage"},
	)

	// ExternalSearchDuration tracks external search call latency
	ExternalSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "external_search_duration_seconds",
			Help:    "External search collaborator call duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// CatalogUpsertFailures tracks async catalog self-population failures
	CatalogUpsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_upsert_failures_total",
			Help: "Async catalog upserts that failed (duplicate races excluded)",
		},
	)
)

// Queue Metrics
var (
	// QueueDepth tracks current queue length per tenant
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "song_queue_depth",
			Help: "Current song queue length by tenant",
		},
		[]string{"tenant"},
	)

	// QueueEnqueuesTotal tracks enqueue attempts by result
	QueueEnqueuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "song_queue_enqueues_total",
			Help: "Enqueue attempts by result (accepted/cooldown)",
		},
		[]string{"result"},
	)
)

// Coach Cache Metrics
var (
	// CoachCacheHits tracks cache hits by level (static/dynamic)
	CoachCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_cache_hits_total",
			Help: "Response cache hits by level (static/dynamic)",
		},
		[]string{"level"},
	)

	// CoachCacheMisses tracks dynamic cache misses
	CoachCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_cache_misses_total",
			Help: "Response cache misses",
		},
	)

	// CoachCacheEvictions tracks insertion-order evictions
	CoachCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_cache_evictions_total",
			Help: "Dynamic cache entries evicted at capacity",
		},
	)

	// CoachCacheSize tracks the current dynamic entry count
	CoachCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coach_cache_entries",
			Help: "Current number of dynamic response cache entries",
		},
	)

	// CoachGenerationsTotal tracks AI generations by result
	CoachGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_generations_total",
			Help: "AI coaching generations by result (success/error/skipped)",
		},
		[]string{"result"},
	)
)

// Session Metrics
var (
	// SessionsActive tracks currently registered tenant sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_sessions_active",
			Help: "Number of tenant sessions currently registered",
		},
	)

	// SessionStartsTotal tracks session start attempts by result
	SessionStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_session_starts_total",
			Help: "Session start attempts by result (started/already_connected/error)",
		},
		[]string{"result"},
	)

	// IngestDroppedTotal tracks inbound events dropped at the ingest boundary
	IngestDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_dropped_events_total",
			Help: "Inbound events dropped by reason (no_subscriber/buffer_full)",
		},
		[]string{"reason"},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/rejected/error)",
		},
		[]string{"result"},
	)

	// WebSocketSlowClientsEvicted tracks slow subscribers dropped mid-broadcast
	WebSocketSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_clients_evicted_total",
			Help: "Slow WebSocket subscribers evicted because their send buffer was full",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks query latency per repository operation
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks failed queries per repository operation
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database query errors",
		},
		[]string{"query"},
	)
)
