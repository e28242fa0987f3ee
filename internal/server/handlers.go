package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/kim-jongsoung/tikfind/internal/errors"
)

// tenantParam parses the :tenant path segment into a UUID.
func tenantParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("tenant")
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid tenant ID").WithContext("tenant", raw)
	}
	return tenantID, nil
}

// requestParam parses the :id path segment into a UUID.
func requestParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid request ID").WithContext("id", raw)
	}
	return id, nil
}

func respondOK(c echo.Context, payload any) error {
	if err := c.JSON(200, payload); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func respondAccepted(c echo.Context) error {
	if err := c.JSON(202, map[string]string{"status": "accepted"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
