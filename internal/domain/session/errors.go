package session

import "errors"

var (
	ErrSessionNotFound = errors.New("search session not found")
	ErrWindowInvalid   = errors.New("availability window is invalid")
)
