package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kim-jongsoung/tikfind/internal/collector"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
)

type startSessionRequest struct {
	ExternalHandle string                `json:"externalHandle"`
	Settings       domain.TenantSettings `json:"settings"`
}

type sessionResponse struct {
	collector.SessionInfo
	Stats domain.TenantStats `json:"stats"`
}

func (s *Server) handleStartSession(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	req.ExternalHandle = strings.TrimSpace(req.ExternalHandle)
	if req.ExternalHandle == "" {
		return apperrors.ValidationError("externalHandle is required")
	}

	if err := s.collector.Start(c.Request().Context(), tenantID, req.ExternalHandle, req.Settings); err != nil {
		return err
	}

	return respondOK(c, s.collector.Info(tenantID))
}

func (s *Server) handleStopSession(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	s.collector.Stop(tenantID)
	return respondOK(c, s.collector.Info(tenantID))
}

func (s *Server) handleGetSession(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	resp := sessionResponse{SessionInfo: s.collector.Info(tenantID)}

	// Stats exist only while the relay tracks the tenant; an idle session
	// reports zeroes.
	if stats, err := s.relay.Stats(tenantID); err == nil {
		resp.Stats = stats
	}

	return respondOK(c, resp)
}
