package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotCurrentSelection means playable sources were requested for an
	// entity that is no longer the open detail page.
	ErrNotCurrentSelection = errors.New("entity is not the current detail selection")
)
