package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MaxCachedMessages bounds the in-memory message log used while the primary
// store is unavailable.
const MaxCachedMessages = 500

// Directory is the bot's in-memory snapshot of users, admins and channels.
// It is owned by the update loop and mutated by one goroutine only.
type Directory struct {
	Users          map[int64]*User
	Admins         []int64
	Channels       map[string]*Channel
	Messages       []MessageRecord
	PrimaryAdminID int64
}

// NewDirectory returns an empty directory for the given primary admin
func NewDirectory(primaryAdminID int64) *Directory {
	return &Directory{
		Users:          make(map[int64]*User),
		Channels:       make(map[string]*Channel),
		PrimaryAdminID: primaryAdminID,
	}
}

// Touch records an inbound message from sender, creating the user on first
// sight. Profile fields are last-write-wins; an empty phone never overwrites
// a known one.
func (d *Directory) Touch(sender Sender, now time.Time) *User {
	user, ok := d.Users[sender.ID]
	if !ok {
		user = &User{
			ID:       sender.ID,
			JoinedAt: now,
		}
		d.Users[sender.ID] = user
	}

	user.FirstName = sender.FirstName
	user.LastName = sender.LastName
	user.Username = sender.Username
	if sender.Phone != "" {
		user.Phone = sender.Phone
	}
	user.LastActiveAt = now
	user.MessageCount++
	user.IsAdmin = d.IsAdmin(sender.ID)

	return user
}

// IsAdmin reports whether id belongs to the admin set
func (d *Directory) IsAdmin(id int64) bool {
	for _, a := range d.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// AddAdmin adds id to the admin set
func (d *Directory) AddAdmin(id int64) error {
	if d.IsAdmin(id) {
		return ErrAlreadyAdmin
	}
	d.Admins = append(d.Admins, id)
	if u, ok := d.Users[id]; ok {
		u.IsAdmin = true
	}
	return nil
}

// RemoveAdmin removes id from the admin set. The primary admin is never removed.
func (d *Directory) RemoveAdmin(id int64) error {
	if id == d.PrimaryAdminID {
		return ErrPrimaryAdmin
	}

	for i, a := range d.Admins {
		if a == id {
			d.Admins = append(d.Admins[:i], d.Admins[i+1:]...)
			if u, ok := d.Users[id]; ok {
				u.IsAdmin = false
			}
			return nil
		}
	}
	return ErrNotAdmin
}

// EnsurePrimaryAdmin inserts the primary admin if missing and reports
// whether the admin set changed.
func (d *Directory) EnsurePrimaryAdmin() bool {
	if d.PrimaryAdminID == 0 || d.IsAdmin(d.PrimaryAdminID) {
		return false
	}
	d.Admins = append([]int64{d.PrimaryAdminID}, d.Admins...)
	if u, ok := d.Users[d.PrimaryAdminID]; ok {
		u.IsAdmin = true
	}
	return true
}

// SyncAdminFlags re-derives every user's IsAdmin mirror from the admin set
func (d *Directory) SyncAdminFlags() {
	for id, u := range d.Users {
		u.IsAdmin = d.IsAdmin(id)
	}
}

// UpsertChannel inserts or replaces a channel by key and reports whether it
// already existed.
func (d *Directory) UpsertChannel(ch *Channel) bool {
	_, existed := d.Channels[ch.Key()]
	d.Channels[ch.Key()] = ch
	return existed
}

// RemoveChannel deletes the channel referenced by a handle or numeric id
func (d *Directory) RemoveChannel(ref string) (*Channel, error) {
	key := NormalizeChannelRef(ref)
	ch, ok := d.Channels[key]
	if !ok || key == "" {
		return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, key)
	}
	delete(d.Channels, key)
	return ch, nil
}

// SortedChannels returns channels ordered by display name, then key
func (d *Directory) SortedChannels() []*Channel {
	channels := make([]*Channel, 0, len(d.Channels))
	for _, ch := range d.Channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].DisplayName != channels[j].DisplayName {
			return channels[i].DisplayName < channels[j].DisplayName
		}
		return channels[i].Key() < channels[j].Key()
	})
	return channels
}

// SortedUserIDs returns all user ids in ascending order
func (d *Directory) SortedUserIDs() []int64 {
	ids := make([]int64, 0, len(d.Users))
	for id := range d.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ActiveUsers counts users seen within window before now
func (d *Directory) ActiveUsers(now time.Time, window time.Duration) int {
	active := 0
	for _, u := range d.Users {
		seen := u.LastActiveAt
		if seen.IsZero() {
			seen = u.JoinedAt
		}
		if now.Sub(seen) < window {
			active++
		}
	}
	return active
}

// CacheMessage appends rec to the local message log, dropping the oldest
// entries beyond MaxCachedMessages.
func (d *Directory) CacheMessage(rec MessageRecord) {
	d.Messages = append(d.Messages, rec)
	if over := len(d.Messages) - MaxCachedMessages; over > 0 {
		d.Messages = append([]MessageRecord(nil), d.Messages[over:]...)
	}
}

// ParseUserID parses a user id typed by an admin
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, raw)
	}
	return id, nil
}
