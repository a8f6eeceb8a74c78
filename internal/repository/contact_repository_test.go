package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okusuri/backend/internal/model"
)

func TestSaveAllWritesPositionsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	contacts := []model.FamilyContact{
		{ID: "c1", UserID: "user-1", Name: "田中 花子", PreferredMethod: model.MethodBoth, Kind: model.ContactKindFamily, CreatedAt: now},
		{ID: "c2", UserID: "user-1", Name: "田中 太郎", PreferredMethod: model.MethodSMS, Kind: model.ContactKindFamily, CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO family_contacts").
		WithArgs("c1", "user-1", "田中 花子", "", "", "", model.MethodBoth, model.ContactKindFamily, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO family_contacts").
		WithArgs("c2", "user-1", "田中 太郎", "", "", "", model.MethodSMS, model.ContactKindFamily, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewContactRepository(db)
	require.NoError(t, repo.SaveAll(context.Background(), contacts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAllNoContactsSkipsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContactRepository(db)
	require.NoError(t, repo.SaveAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserHandlesNullPhoneAndEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"id", "user_id", "name", "relationship", "phone", "email", "preferred_method", "kind", "position", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("c1", "user-1", "田中 花子", "娘", nil, "hanako@example.com", model.MethodEmail, model.ContactKindFamily, 0, "2026-01-10T08:00:00Z").
		AddRow("c2", "user-1", "田中 太郎", "息子", "090-0000-0000", nil, model.MethodSMS, model.ContactKindFamily, 1, "2026-01-10T08:00:00Z")

	mock.ExpectQuery("SELECT id, user_id, name, relationship").
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := NewContactRepository(db)
	contacts, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, contacts, 2)
	assert.Empty(t, contacts[0].Phone)
	assert.Equal(t, "hanako@example.com", contacts[0].Email)
	assert.Equal(t, "090-0000-0000", contacts[1].Phone)
	assert.Empty(t, contacts[1].Email)
	assert.Equal(t, 1, contacts[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}
