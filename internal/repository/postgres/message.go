package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message log repository
func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Insert(ctx context.Context, rec *models.MessageRecord) error {
	query := `INSERT INTO messages (user_id, message_id, text, date) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, rec.UserID, rec.MessageID, rec.Text, rec.Date); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// NewRepositories wires every postgres repository onto one connection pool
func NewRepositories(db *sql.DB) *repository.Repositories {
	return &repository.Repositories{
		Users:    NewUserRepository(db),
		Admins:   NewAdminRepository(db),
		Channels: NewChannelRepository(db),
		Messages: NewMessageRepository(db),
	}
}
