package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/models"
)

// ActiveWindow is how recently a user must have written to count as active
const ActiveWindow = 7 * 24 * time.Hour

// MessageCounter reports the size of the message log
type MessageCounter interface {
	MessageCount(ctx context.Context, dir *models.Directory) int64
}

// Service is the business logic layer for admin operations on the
// directory. It mutates the in-memory snapshot only; the router persists it.
type Service struct {
	messages MessageCounter
	logger   *logrus.Logger
}

// New creates a new Service
func New(messages MessageCounter, logger *logrus.Logger) *Service {
	return &Service{messages: messages, logger: logger}
}

// Stats is a point-in-time summary of the directory
type Stats struct {
	TotalUsers    int
	ActiveUsers   int
	TotalMessages int64
	Admins        int
	Channels      int
	GeneratedAt   time.Time
}

// Stats summarizes the directory as of now
func (s *Service) Stats(ctx context.Context, dir *models.Directory, now time.Time) Stats {
	return Stats{
		TotalUsers:    len(dir.Users),
		ActiveUsers:   dir.ActiveUsers(now, ActiveWindow),
		TotalMessages: s.messages.MessageCount(ctx, dir),
		Admins:        len(dir.Admins),
		Channels:      len(dir.Channels),
		GeneratedAt:   now,
	}
}

// AddAdmin grants admin rights to the user id typed by an admin
func (s *Service) AddAdmin(dir *models.Directory, raw string, by int64) (int64, error) {
	id, err := models.ParseUserID(raw)
	if err != nil {
		return 0, err
	}
	if err := dir.AddAdmin(id); err != nil {
		return id, fmt.Errorf("add admin %d: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{
		"admin_id": id,
		"by":       by,
	}).Info("Admin added")
	return id, nil
}

// RemoveAdmin revokes admin rights from the user id typed by an admin
func (s *Service) RemoveAdmin(dir *models.Directory, raw string, by int64) (int64, error) {
	id, err := models.ParseUserID(raw)
	if err != nil {
		return 0, err
	}
	if err := dir.RemoveAdmin(id); err != nil {
		return id, fmt.Errorf("remove admin %d: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{
		"admin_id": id,
		"by":       by,
	}).Info("Admin removed")
	return id, nil
}

// AddChannel parses "name | handle-or-id" and upserts the channel. It
// reports whether a channel with the same key was replaced.
func (s *Service) AddChannel(dir *models.Directory, spec string, by int64, now time.Time) (*models.Channel, bool, error) {
	ch, err := models.ParseChannelSpec(spec)
	if err != nil {
		return nil, false, err
	}
	ch.AddedBy = by
	ch.AddedAt = now

	existed := dir.UpsertChannel(ch)

	s.logger.WithFields(logrus.Fields{
		"channel": ch.Key(),
		"by":      by,
		"replace": existed,
	}).Info("Channel added")
	return ch, existed, nil
}

// RemoveChannel removes the channel referenced by a handle or id
func (s *Service) RemoveChannel(dir *models.Directory, ref string, by int64) (*models.Channel, error) {
	ch, err := dir.RemoveChannel(ref)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"channel": ch.Key(),
		"by":      by,
	}).Info("Channel removed")
	return ch, nil
}
