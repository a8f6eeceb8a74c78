package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetMissingKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("user-1", "onboarding_completed").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	repo := NewSettingsRepository(db)
	_, err = repo.Get(context.Background(), "user-1", "onboarding_completed")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO settings").
		WithArgs("user-1", "onboarding_completed", "true").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("user-1", "onboarding_completed").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("true"))

	repo := NewSettingsRepository(db)
	require.NoError(t, repo.Set(context.Background(), "user-1", "onboarding_completed", "true"))

	value, err := repo.Get(context.Background(), "user-1", "onboarding_completed")
	require.NoError(t, err)
	assert.Equal(t, "true", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM settings").
		WithArgs("user-1", "onboarding_completed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSettingsRepository(db)
	require.NoError(t, repo.Clear(context.Background(), "user-1", "onboarding_completed"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
