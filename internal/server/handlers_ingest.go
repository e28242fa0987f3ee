package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
)

// The platform bridge posts raw live events here. Events are acknowledged
// with 202 once buffered; delivery to the dashboard is asynchronous.

func (s *Server) handleIngestChat(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var ev domain.ChatEvent
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(ev.RequesterHandle) == "" {
		return apperrors.ValidationError("requesterHandle is required")
	}
	if ev.Text == "" {
		return apperrors.ValidationError("text is required")
	}

	if err := s.source.Publish(tenantID, domain.LiveEvent{Kind: domain.EventChat, Chat: &ev}); err != nil {
		return err
	}
	return respondAccepted(c)
}

func (s *Server) handleIngestGift(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var ev domain.GiftEvent
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if ev.Count < 1 {
		ev.Count = 1
	}

	if err := s.source.Publish(tenantID, domain.LiveEvent{Kind: domain.EventGift, Gift: &ev}); err != nil {
		return err
	}
	return respondAccepted(c)
}

func (s *Server) handleIngestViewers(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var ev domain.ViewerCountEvent
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if ev.Count < 0 {
		return apperrors.ValidationError("count must not be negative")
	}

	if err := s.source.Publish(tenantID, domain.LiveEvent{Kind: domain.EventViewerCount, ViewerCount: &ev}); err != nil {
		return err
	}
	return respondAccepted(c)
}

func (s *Server) handleIngestStatus(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	var ev domain.StatusEvent
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.source.Publish(tenantID, domain.LiveEvent{Kind: domain.EventStatus, Status: &ev}); err != nil {
		return err
	}
	return respondAccepted(c)
}
