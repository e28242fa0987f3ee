package domain

import "errors"

var (
	ErrAlreadyConnected  = errors.New("a live session already exists for this tenant")
	ErrSongNotFound      = errors.New("song not found")
	ErrRequestNotFound   = errors.New("queued request not found")
	ErrTenantNotFound    = errors.New("no session registered for tenant")
	ErrSearchUnavailable = errors.New("external search unavailable")
)
