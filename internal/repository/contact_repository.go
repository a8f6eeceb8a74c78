package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"okusuri/backend/internal/model"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// SaveAll inserts a batch of contacts in one transaction, preserving slice
// order through the position column. Called once, at onboarding completion.
func (r *ContactRepository) SaveAll(ctx context.Context, contacts []model.FamilyContact) error {
	if len(contacts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contacts tx: %w", err)
	}
	defer tx.Rollback()

	for i, contact := range contacts {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO family_contacts (
				id, user_id, name, relationship, phone, email,
				preferred_method, kind, position, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			contact.ID,
			contact.UserID,
			contact.Name,
			contact.Relationship,
			contact.Phone,
			contact.Email,
			contact.PreferredMethod,
			contact.Kind,
			i,
			contact.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit contacts: %w", err)
	}
	return nil
}

func (r *ContactRepository) ListByUser(ctx context.Context, userID string) ([]model.FamilyContact, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, name, relationship, phone, email,
		        preferred_method, kind, position, created_at
		 FROM family_contacts
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]model.FamilyContact, 0)
	for rows.Next() {
		contact, scanErr := scanContact(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		contacts = append(contacts, *contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, nil
}

func scanContact(s scanner) (*model.FamilyContact, error) {
	var contact model.FamilyContact
	var phone sql.NullString
	var email sql.NullString
	var createdAt string
	if err := s.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.Relationship,
		&phone,
		&email,
		&contact.PreferredMethod,
		&contact.Kind,
		&contact.Position,
		&createdAt,
	); err != nil {
		return nil, fmt.Errorf("scan contact: %w", err)
	}

	contact.Phone = phone.String
	contact.Email = email.String

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse contact created_at: %w", err)
	}
	contact.CreatedAt = parsedCreatedAt

	return &contact, nil
}
