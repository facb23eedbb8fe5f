package models

import "errors"

var (
	ErrPrimaryAdmin       = errors.New("primary admin cannot be removed")
	ErrAlreadyAdmin       = errors.New("user is already an admin")
	ErrNotAdmin           = errors.New("user is not an admin")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrInvalidChannelSpec = errors.New("invalid channel spec")
	ErrInvalidUserID      = errors.New("invalid user id")
)
