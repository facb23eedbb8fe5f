package models

import (
	"strings"
	"time"
)

// PendingAction marks which follow-up answer the bot expects from a user
type PendingAction string

const (
	PendingNone          PendingAction = ""
	PendingBroadcast     PendingAction = "broadcast"
	PendingAddAdmin      PendingAction = "add_admin"
	PendingRemoveAdmin   PendingAction = "remove_admin"
	PendingAddChannel    PendingAction = "add_channel"
	PendingRemoveChannel PendingAction = "remove_channel"
)

// PendingActions lists every non-empty pending action.
func PendingActions() []PendingAction {
	return []PendingAction{
		PendingBroadcast,
		PendingAddAdmin,
		PendingRemoveAdmin,
		PendingAddChannel,
		PendingRemoveChannel,
	}
}

// Valid reports whether a is a known pending action (including none)
func (a PendingAction) Valid() bool {
	if a == PendingNone {
		return true
	}
	for _, known := range PendingActions() {
		if a == known {
			return true
		}
	}
	return false
}

// User represents a Telegram user who has written to the bot
type User struct {
	ID            int64         `json:"id" db:"id"`
	FirstName     string        `json:"first_name" db:"first_name"`
	LastName      string        `json:"last_name" db:"last_name"`
	Username      string        `json:"username" db:"username"`
	Phone         string        `json:"phone" db:"phone"`
	JoinedAt      time.Time     `json:"joined_at" db:"joined_at"`
	LastActiveAt  time.Time     `json:"last_active_at" db:"last_active_at"`
	MessageCount  int64         `json:"message_count" db:"message_count"`
	IsAdmin       bool          `json:"is_admin" db:"is_admin"`
	PendingAction PendingAction `json:"pending_action,omitempty" db:"pending_action"`
}

// Sender is the profile data carried by an inbound message
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Phone     string
}

// FullName returns the user's full name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return "unknown"
}

// HasPending reports whether the user is in the middle of a prompt
func (u *User) HasPending() bool {
	return u.PendingAction != PendingNone
}

// DropUnknownPending clears a pending action no handler knows, as left by an
// older build or an edited file, and reports whether it did
func (u *User) DropUnknownPending() bool {
	if !u.HasPending() || u.PendingAction.Valid() {
		return false
	}
	u.PendingAction = PendingNone
	return true
}

// TakePending clears and returns the pending action.
func (u *User) TakePending() PendingAction {
	action := u.PendingAction
	u.PendingAction = PendingNone
	return action
}
