package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards are embedded in third-party pages.
		return true
	},
}

func (s *Server) handleDashboardSocket(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		slog.Warn("Rejecting dashboard connection",
			"tenant_id", tenantID, "ip", ip, "reason", reason)
		return apperrors.RateLimitedError("connection limit reached").
			WithContext("reason", string(reason))
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "tenant_id", tenantID, "error", err)
		return nil
	}

	if err := s.hub.Register(tenantID, conn); err != nil {
		// Hub closed the connection already.
		slog.Warn("Failed to register dashboard client", "tenant_id", tenantID, "error", err)
		return nil
	}

	// Read pump. Dashboards never send application data; this blocks until
	// the peer disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(tenantID, conn)
	return nil
}
