package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Inbound live events from the platform bridge
	s.echo.POST("/api/live/:tenant/chat", s.handleIngestChat)
	s.echo.POST("/api/live/:tenant/gift", s.handleIngestGift)
	s.echo.POST("/api/live/:tenant/viewers", s.handleIngestViewers)
	s.echo.POST("/api/live/:tenant/status", s.handleIngestStatus)

	// Session lifecycle
	s.echo.POST("/api/sessions/:tenant/start", s.handleStartSession)
	s.echo.POST("/api/sessions/:tenant/stop", s.handleStopSession)
	s.echo.GET("/api/sessions/:tenant", s.handleGetSession)

	// Song queue management
	s.echo.GET("/api/queue/:tenant", s.handleListQueue)
	s.echo.DELETE("/api/queue/:tenant/:id", s.handleRemoveRequest)
	s.echo.POST("/api/queue/:tenant/:id/played", s.handleMarkPlayed)
	s.echo.POST("/api/queue/:tenant/:id/move", s.handleMoveRequest)
	s.echo.POST("/api/queue/:tenant/clear", s.handleClearQueue)
	s.echo.POST("/api/queue/:tenant/skip-absent", s.handleSkipAbsent)
	s.echo.POST("/api/queue/:tenant/cooldown", s.handleSetCooldown)

	// Dashboard WebSocket
	s.echo.GET("/ws/dashboard/:tenant", s.handleDashboardSocket)
}
