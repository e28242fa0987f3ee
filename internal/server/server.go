package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kim-jongsoung/tikfind/internal/collector"
	"github.com/kim-jongsoung/tikfind/internal/config"
	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
	"github.com/kim-jongsoung/tikfind/internal/ingest"
	"github.com/kim-jongsoung/tikfind/internal/relay"
	"github.com/kim-jongsoung/tikfind/internal/songqueue"
	"github.com/kim-jongsoung/tikfind/internal/websocket"
)

// pinger is the minimal dependency health checks need from the Postgres pool
// and the Redis client.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	collector *collector.Manager
	relay     *relay.Relay
	queue     *songqueue.Manager
	source    *ingest.Source
	hub       *websocket.Hub
	postgres  pinger
	redis     pinger
	limits    *ConnectionLimits
	startTime time.Time
}

func NewServer(
	cfg *config.Config,
	manager *collector.Manager,
	rel *relay.Relay,
	queue *songqueue.Manager,
	source *ingest.Source,
	hub *websocket.Hub,
	postgres pinger,
	redis pinger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		collector: manager,
		relay:     rel,
		queue:     queue,
		source:    source,
		hub:       hub,
		postgres:  postgres,
		redis:     redis,
		limits: NewConnectionLimits(
			cfg.MaxWebSocketConnections,
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionsPerSecond,
			cfg.ConnectionBurst,
		),
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
