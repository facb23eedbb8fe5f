package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, first_name, last_name, username, phone, joined_at, last_active_at,
		       message_count, is_admin, pending_action
		FROM users
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var pending string
		if err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Username,
			&user.Phone,
			&user.JoinedAt,
			&user.LastActiveAt,
			&user.MessageCount,
			&user.IsAdmin,
			&pending,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.PendingAction = models.PendingAction(pending)
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Upsert(ctx context.Context, users []*models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, username, phone, joined_at, last_active_at,
		                   message_count, is_admin, pending_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			phone = EXCLUDED.phone,
			joined_at = EXCLUDED.joined_at,
			last_active_at = EXCLUDED.last_active_at,
			message_count = EXCLUDED.message_count,
			is_admin = EXCLUDED.is_admin,
			pending_action = EXCLUDED.pending_action`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin user upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare user upsert: %w", err)
	}
	defer stmt.Close()

	for _, user := range users {
		if _, err := stmt.ExecContext(ctx,
			user.ID,
			user.FirstName,
			user.LastName,
			user.Username,
			user.Phone,
			user.JoinedAt,
			user.LastActiveAt,
			user.MessageCount,
			user.IsAdmin,
			string(user.PendingAction),
		); err != nil {
			return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user upsert: %w", err)
	}

	return nil
}
