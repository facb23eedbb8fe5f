package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codermrx/relaybot/internal/repository"
)

type adminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new admin roster repository
func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) List(ctx context.Context) ([]int64, error) {
	query := `SELECT admin_id FROM admins ORDER BY position, admin_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admins: %w", err)
	}

	return ids, nil
}

// Replace swaps the whole roster inside one transaction
func (r *adminRepository) Replace(ctx context.Context, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin admin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM admins`); err != nil {
		return fmt.Errorf("failed to clear admins: %w", err)
	}

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO admins (admin_id, position) VALUES ($1, $2) ON CONFLICT (admin_id) DO NOTHING`,
			id, i,
		); err != nil {
			return fmt.Errorf("failed to insert admin %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit admin replace: %w", err)
	}

	return nil
}
