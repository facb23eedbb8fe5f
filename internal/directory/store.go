// Package directory synchronizes the in-memory directory with the primary
// store and the local JSON mirror.
//
// The primary store is preferred for reads. Any failure on one entity falls
// back to that entity's mirror file without touching the others, so a load can
// mix sources. Saves go to the primary store when one is configured and always
// rewrite the mirror.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/metrics"
	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

const (
	entityUsers    = "users"
	entityAdmins   = "admins"
	entityChannels = "channels"
	entityMessages = "messages"
	entitySchema   = "schema"
)

// ErrPrimaryNotReady is reported by Save while the preparer keeps failing
var ErrPrimaryNotReady = errors.New("primary store not ready")

// Preparer readies the primary store before use, e.g. by applying migrations
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Mirror is the local file fallback
type Mirror interface {
	LoadUsers() (map[int64]*models.User, error)
	SaveUsers(map[int64]*models.User) error
	LoadAdmins() ([]int64, error)
	SaveAdmins([]int64) error
	LoadChannels() (map[string]*models.Channel, error)
	SaveChannels(map[string]*models.Channel) error
	LoadMessages() ([]models.MessageRecord, error)
	SaveMessages([]models.MessageRecord) error
}

// Store loads and saves directory snapshots. primary may be nil, in which
// case only the mirror is used.
type Store struct {
	primary        *repository.Repositories
	preparer       Preparer
	mirror         Mirror
	primaryAdminID int64
	timeout        time.Duration
	logger         *logrus.Logger
}

// NewStore creates a directory store
func NewStore(primary *repository.Repositories, mirror Mirror, primaryAdminID int64, logger *logrus.Logger) *Store {
	return &Store{
		primary:        primary,
		mirror:         mirror,
		primaryAdminID: primaryAdminID,
		timeout:        10 * time.Second,
		logger:         logger,
	}
}

// SetPreparer makes every primary operation wait for p to succeed. While it
// fails the store behaves as if the primary were down.
func (s *Store) SetPreparer(p Preparer) {
	s.preparer = p
}

// HasPrimary reports whether a primary store is configured
func (s *Store) HasPrimary() bool {
	return s.primary != nil
}

// Load builds a snapshot, entity by entity, and guarantees the primary admin
// is present. It never fails; degraded entities are logged.
func (s *Store) Load(ctx context.Context) *models.Directory {
	dir := models.NewDirectory(s.primaryAdminID)

	usePrimary := s.primaryReady(ctx)
	dir.Users = s.loadUsers(ctx, usePrimary)
	dir.Admins = s.loadAdmins(ctx, usePrimary)
	dir.Channels = s.loadChannels(ctx, usePrimary)

	msgs, err := s.mirror.LoadMessages()
	if err != nil {
		s.logger.WithError(err).Warn("Message cache unreadable, starting empty")
	}
	if len(msgs) > 0 {
		dir.Messages = msgs
	}

	dir.SyncAdminFlags()

	if dir.EnsurePrimaryAdmin() {
		s.logger.WithField("admin_id", s.primaryAdminID).Info("Primary admin added to admin set")
		if err := s.Save(ctx, dir); err != nil {
			s.logger.WithError(err).Warn("Persisting primary admin degraded")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"users":    len(dir.Users),
		"admins":   len(dir.Admins),
		"channels": len(dir.Channels),
	}).Info("Directory loaded")

	return dir
}

func (s *Store) loadUsers(ctx context.Context, usePrimary bool) map[int64]*models.User {
	users := s.fetchUsers(ctx, usePrimary)
	for id, u := range users {
		action := u.PendingAction
		if u.DropUnknownPending() {
			s.logger.WithFields(logrus.Fields{
				"user_id": id,
				"action":  action,
			}).Warn("Unknown pending action reset")
		}
	}
	return users
}

func (s *Store) fetchUsers(ctx context.Context, usePrimary bool) map[int64]*models.User {
	if usePrimary {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		users, err := s.primary.Users.List(ctx)
		if err == nil {
			byID := make(map[int64]*models.User, len(users))
			for _, u := range users {
				byID[u.ID] = u
			}
			return byID
		}
		s.fallback(entityUsers, "load", err)
	}

	users, err := s.mirror.LoadUsers()
	if err != nil {
		s.logger.WithError(err).WithField("entity", entityUsers).Warn("Mirror unreadable, starting empty")
	}
	return users
}

func (s *Store) loadAdmins(ctx context.Context, usePrimary bool) []int64 {
	if usePrimary {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		ids, err := s.primary.Admins.List(ctx)
		if err == nil {
			return ids
		}
		s.fallback(entityAdmins, "load", err)
	}

	ids, err := s.mirror.LoadAdmins()
	if err != nil {
		s.logger.WithError(err).WithField("entity", entityAdmins).Warn("Mirror unreadable, starting empty")
	}
	return ids
}

func (s *Store) loadChannels(ctx context.Context, usePrimary bool) map[string]*models.Channel {
	if usePrimary {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		list, err := s.primary.Channels.List(ctx)
		if err == nil {
			channels := make(map[string]*models.Channel, len(list))
			for _, ch := range list {
				channels[ch.Key()] = ch
			}
			return channels
		}
		s.fallback(entityChannels, "load", err)
	}

	channels, err := s.mirror.LoadChannels()
	if err != nil {
		s.logger.WithError(err).WithField("entity", entityChannels).Warn("Mirror unreadable, starting empty")
	}
	return channels
}

// Save writes the whole snapshot: users and channels upserted by key, admins
// replaced, then every mirror file rewritten. The returned error lists each
// failed entity; the snapshot itself is never modified.
func (s *Store) Save(ctx context.Context, dir *models.Directory) error {
	var result *multierror.Error

	if s.primary != nil && !s.primaryReady(ctx) {
		result = multierror.Append(result, ErrPrimaryNotReady)
	} else if s.primary != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.primary.Users.Upsert(ctx, usersOf(dir)); err != nil {
			s.fallback(entityUsers, "save", err)
			result = multierror.Append(result, fmt.Errorf("primary %s: %w", entityUsers, err))
		}
		if err := s.primary.Channels.Sync(ctx, channelsOf(dir)); err != nil {
			s.fallback(entityChannels, "save", err)
			result = multierror.Append(result, fmt.Errorf("primary %s: %w", entityChannels, err))
		}
		if err := s.primary.Admins.Replace(ctx, dir.Admins); err != nil {
			s.fallback(entityAdmins, "save", err)
			result = multierror.Append(result, fmt.Errorf("primary %s: %w", entityAdmins, err))
		}
	}

	if err := s.mirror.SaveUsers(dir.Users); err != nil {
		result = multierror.Append(result, fmt.Errorf("mirror %s: %w", entityUsers, err))
	}
	if err := s.mirror.SaveAdmins(dir.Admins); err != nil {
		result = multierror.Append(result, fmt.Errorf("mirror %s: %w", entityAdmins, err))
	}
	if err := s.mirror.SaveChannels(dir.Channels); err != nil {
		result = multierror.Append(result, fmt.Errorf("mirror %s: %w", entityChannels, err))
	}
	if err := s.mirror.SaveMessages(dir.Messages); err != nil {
		result = multierror.Append(result, fmt.Errorf("mirror %s: %w", entityMessages, err))
	}

	metrics.DirectorySize.WithLabelValues(entityUsers).Set(float64(len(dir.Users)))
	metrics.DirectorySize.WithLabelValues(entityAdmins).Set(float64(len(dir.Admins)))
	metrics.DirectorySize.WithLabelValues(entityChannels).Set(float64(len(dir.Channels)))

	return result.ErrorOrNil()
}

// RecordMessage logs an inbound message in the primary store, or in the
// snapshot's local cache when the primary is unavailable.
func (s *Store) RecordMessage(ctx context.Context, dir *models.Directory, rec models.MessageRecord) {
	if s.primaryReady(ctx) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err := s.primary.Messages.Insert(ctx, &rec)
		if err == nil {
			return
		}
		s.fallback(entityMessages, "insert", err)
	}
	dir.CacheMessage(rec)
}

// MessageCount returns the total number of logged messages
func (s *Store) MessageCount(ctx context.Context, dir *models.Directory) int64 {
	if s.primaryReady(ctx) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		count, err := s.primary.Messages.Count(ctx)
		if err == nil {
			return count + int64(len(dir.Messages))
		}
		s.fallback(entityMessages, "count", err)
	}
	return int64(len(dir.Messages))
}

// primaryReady reports whether the primary store is configured and prepared
func (s *Store) primaryReady(ctx context.Context) bool {
	if s.primary == nil {
		return false
	}
	if s.preparer == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.preparer.Prepare(ctx); err != nil {
		s.fallback(entitySchema, "prepare", err)
		return false
	}
	return true
}

func (s *Store) fallback(entity, op string, err error) {
	metrics.StoreFallbacks.WithLabelValues(entity, op).Inc()
	s.logger.WithError(err).WithFields(logrus.Fields{
		"entity": entity,
		"op":     op,
	}).Warn("Primary store unavailable, using local mirror")
}

func usersOf(dir *models.Directory) []*models.User {
	users := make([]*models.User, 0, len(dir.Users))
	for _, id := range dir.SortedUserIDs() {
		users = append(users, dir.Users[id])
	}
	return users
}

func channelsOf(dir *models.Directory) []*models.Channel {
	return dir.SortedChannels()
}

// String describes the storage mode for log lines
func (s *Store) String() string {
	mode := "mirror-only"
	if s.primary != nil {
		mode = "primary+mirror"
	}
	return mode + " (primary admin " + strconv.FormatInt(s.primaryAdminID, 10) + ")"
}
