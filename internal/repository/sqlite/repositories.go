package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

// UserRepository handles users in SQLite.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.model())
	}
	return users, nil
}

func (r *UserRepository) Upsert(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, newUserRow(u))
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&rows, 200).Error
	if err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}
	return nil
}

// AdminRepository handles the admin roster in SQLite.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) repository.AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) List(ctx context.Context) ([]int64, error) {
	var rows []adminRow
	if err := r.db.WithContext(ctx).Order("position, admin_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AdminID)
	}
	return ids, nil
}

func (r *AdminRepository) Replace(ctx context.Context, ids []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&adminRow{}).Error; err != nil {
			return fmt.Errorf("clear admins: %w", err)
		}
		for i, id := range ids {
			row := adminRow{AdminID: id, Position: i}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("insert admin %d: %w", id, err)
			}
		}
		return nil
	})
}

// ChannelRepository handles the channel directory in SQLite.
type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) repository.ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	var rows []channelRow
	if err := r.db.WithContext(ctx).Order("channel_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	channels := make([]*models.Channel, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, row.model())
	}
	return channels, nil
}

func (r *ChannelRepository) Sync(ctx context.Context, channels []*models.Channel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keys := make([]string, 0, len(channels))
		for _, ch := range channels {
			row := newChannelRow(ch)
			keys = append(keys, row.ChannelKey)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("upsert channel %s: %w", row.ChannelKey, err)
			}
		}

		prune := tx.Where("1 = 1")
		if len(keys) > 0 {
			prune = tx.Where("channel_key NOT IN ?", keys)
		}
		if err := prune.Delete(&channelRow{}).Error; err != nil {
			return fmt.Errorf("prune channels: %w", err)
		}
		return nil
	})
}

// MessageRepository handles the message log in SQLite.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Insert(ctx context.Context, rec *models.MessageRecord) error {
	row := messageRow{
		UserID:    rec.UserID,
		MessageID: rec.MessageID,
		Text:      rec.Text,
		Date:      rec.Date,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&messageRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
