package repository

import (
	"context"

	"github.com/codermrx/relaybot/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	List(ctx context.Context) ([]*models.User, error)
	Upsert(ctx context.Context, users []*models.User) error
}

// AdminRepository defines the interface for the admin roster
type AdminRepository interface {
	List(ctx context.Context) ([]int64, error)
	Replace(ctx context.Context, ids []int64) error
}

// ChannelRepository defines the interface for channel directory operations
type ChannelRepository interface {
	List(ctx context.Context) ([]*models.Channel, error)
	// Sync upserts every channel by key and deletes rows whose key is absent.
	Sync(ctx context.Context, channels []*models.Channel) error
}

// MessageRepository defines the interface for the inbound message log
type MessageRepository interface {
	Insert(ctx context.Context, rec *models.MessageRecord) error
	Count(ctx context.Context) (int64, error)
}

// Repositories bundles the primary store backends
type Repositories struct {
	Users    UserRepository
	Admins   AdminRepository
	Channels ChannelRepository
	Messages MessageRepository
}
