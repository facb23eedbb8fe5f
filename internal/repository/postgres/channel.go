package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

type channelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *sql.DB) repository.ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	query := `
		SELECT username, chat_id, display_name, added_by, added_at
		FROM channels
		ORDER BY channel_key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		ch := &models.Channel{}
		if err := rows.Scan(
			&ch.Username,
			&ch.ChatID,
			&ch.DisplayName,
			&ch.AddedBy,
			&ch.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channels: %w", err)
	}

	return channels, nil
}

func (r *channelRepository) Sync(ctx context.Context, channels []*models.Channel) error {
	upsert := `
		INSERT INTO channels (channel_key, username, chat_id, display_name, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (channel_key) DO UPDATE SET
			username = EXCLUDED.username,
			chat_id = EXCLUDED.chat_id,
			display_name = EXCLUDED.display_name,
			added_by = EXCLUDED.added_by,
			added_at = EXCLUDED.added_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin channel sync: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(channels))
	for _, ch := range channels {
		keys = append(keys, ch.Key())
		if _, err := tx.ExecContext(ctx, upsert,
			ch.Key(),
			ch.Username,
			ch.ChatID,
			ch.DisplayName,
			ch.AddedBy,
			ch.AddedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert channel %s: %w", ch.Key(), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM channels WHERE NOT (channel_key = ANY($1))`,
		pq.Array(keys),
	); err != nil {
		return fmt.Errorf("failed to prune channels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit channel sync: %w", err)
	}

	return nil
}
