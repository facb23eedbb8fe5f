package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channel is an announcement channel advertised to users. It is keyed either
// by its public handle or by its numeric chat id, never both.
type Channel struct {
	Username    string    `json:"username,omitempty" db:"username"`
	ChatID      int64     `json:"chat_id,omitempty" db:"chat_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	AddedBy     int64     `json:"added_by" db:"added_by"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}

// Key returns the directory key of the channel
func (c *Channel) Key() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ChatID, 10)
}

// Link returns a human readable reference to the channel
func (c *Channel) Link() string {
	if c.Username != "" {
		return "@" + c.Username
	}
	return fmt.Sprintf("id %d", c.ChatID)
}

// NormalizeChannelRef strips whitespace and a leading "@" from a handle or id.
func NormalizeChannelRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "@")
}

// ParseChannelSpec parses "display name | handle-or-id" into a channel.
func ParseChannelSpec(spec string) (*Channel, error) {
	name, ref, ok := strings.Cut(spec, "|")
	if !ok {
		return nil, fmt.Errorf("%w: missing \"|\" separator", ErrInvalidChannelSpec)
	}

	name = strings.TrimSpace(name)
	ref = NormalizeChannelRef(ref)
	if name == "" || ref == "" {
		return nil, fmt.Errorf("%w: empty name or handle", ErrInvalidChannelSpec)
	}

	ch := &Channel{DisplayName: name}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		ch.ChatID = id
	} else {
		if strings.ContainsAny(ref, " \t|") {
			return nil, fmt.Errorf("%w: handle %q contains spaces", ErrInvalidChannelSpec, ref)
		}
		ch.Username = ref
	}

	return ch, nil
}
