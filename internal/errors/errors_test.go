package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{ConflictError("taken"), http.StatusConflict},
		{RateLimitedError("slow down"), http.StatusTooManyRequests},
		{InternalError("boom", nil), http.StatusInternalServerError},
		{ExternalError("upstream", nil), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), "type %s", tt.err.Type)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ExternalError("search failed", cause)

	assert.Contains(t, err.Error(), "external")
	assert.Contains(t, err.Error(), "search failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestAsStructuredErrorPassesThrough(t *testing.T) {
	original := ConflictError("already running")
	wrapped := fmt.Errorf("starting session: %w", original)

	got := AsStructuredError(wrapped)
	assert.Same(t, original, got)
}

func TestAsStructuredErrorClassifiesDomainSentinels(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		expType ErrorType
	}{
		{"already connected", domain.ErrAlreadyConnected, TypeConflict},
		{"tenant not found", domain.ErrTenantNotFound, TypeNotFound},
		{"request not found", domain.ErrRequestNotFound, TypeNotFound},
		{"song not found", domain.ErrSongNotFound, TypeNotFound},
		{"search unavailable", domain.ErrSearchUnavailable, TypeExternal},
		{"wrapped sentinel", fmt.Errorf("start: %w", domain.ErrAlreadyConnected), TypeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsStructuredError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.expType, got.Type)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestAsStructuredErrorUnknownBecomesInternal(t *testing.T) {
	got := AsStructuredError(stderrors.New("mystery"))
	assert.Equal(t, TypeInternal, got.Type)
}

func TestAsStructuredErrorNil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}

func TestWithContext(t *testing.T) {
	err := RateLimitedError("cooldown active").WithContext("remaining_minutes", 4)

	resp := err.ToResponse()
	assert.Equal(t, "cooldown active", resp.Error)
	assert.Equal(t, TypeRateLimited, resp.Type)
	assert.Equal(t, 4, resp.Context["remaining_minutes"])
}
