package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsRepository is a per-user key-value store. It backs small durable
// flags such as onboarding completion, so callers depend on get/set/clear
// rather than on a concrete storage mechanism.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`,
		userID,
		key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, userID, key, value string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) Clear(ctx context.Context, userID, key string) error {
	_, err := r.db.ExecContext(
		ctx,
		`DELETE FROM settings WHERE user_id = ? AND key = ?`,
		userID,
		key,
	)
	if err != nil {
		return fmt.Errorf("clear setting %s: %w", key, err)
	}
	return nil
}
