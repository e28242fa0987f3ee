package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
)

func (s *Server) handleListQueue(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	return respondOK(c, domain.QueueUpdatePayload{Queue: s.queue.List(tenantID)})
}

func (s *Server) handleRemoveRequest(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	id, err := requestParam(c)
	if err != nil {
		return err
	}

	if err := s.queue.Remove(tenantID, id); err != nil {
		return err
	}

	s.relay.BroadcastQueue(tenantID)
	return respondOK(c, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkPlayed(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	id, err := requestParam(c)
	if err != nil {
		return err
	}

	if err := s.queue.MarkPlayed(tenantID, id); err != nil {
		return err
	}

	s.relay.BroadcastQueue(tenantID)
	return respondOK(c, map[string]string{"status": "ok"})
}

type moveRequest struct {
	NewPosition int `json:"newPosition"`
}

func (s *Server) handleMoveRequest(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	id, err := requestParam(c)
	if err != nil {
		return err
	}

	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.NewPosition < 0 {
		return apperrors.ValidationError("newPosition must not be negative")
	}

	if err := s.queue.Move(tenantID, id, req.NewPosition); err != nil {
		return err
	}

	s.relay.BroadcastQueue(tenantID)
	return respondOK(c, domain.QueueUpdatePayload{Queue: s.queue.List(tenantID)})
}

func (s *Server) handleClearQueue(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	s.queue.Clear(tenantID)
	s.relay.BroadcastQueue(tenantID)
	return respondOK(c, map[string]string{"status": "ok"})
}

type skipAbsentRequest struct {
	ActiveViewers []string `json:"activeViewers"`
}

func (s *Server) handleSkipAbsent(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var req skipAbsentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	active := make(map[string]struct{}, len(req.ActiveViewers))
	for _, id := range req.ActiveViewers {
		active[id] = struct{}{}
	}

	skipped := s.queue.SkipAbsent(tenantID, active)
	if len(skipped) > 0 {
		s.relay.BroadcastQueue(tenantID)
	}

	return respondOK(c, map[string]any{"skipped": skipped})
}

type cooldownRequest struct {
	RequesterID string `json:"requesterId"`
	Minutes     int    `json:"minutes"`
}

func (s *Server) handleSetCooldown(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var req cooldownRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	req.RequesterID = strings.TrimSpace(req.RequesterID)
	if req.RequesterID == "" {
		return apperrors.ValidationError("requesterId is required")
	}
	if req.Minutes < 0 {
		return apperrors.ValidationError("minutes must not be negative")
	}

	s.queue.SetCooldownWindow(tenantID, req.RequesterID, req.Minutes)
	return respondOK(c, map[string]string{"status": "ok"})
}
