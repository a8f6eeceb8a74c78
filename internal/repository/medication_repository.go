package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"okusuri/backend/internal/model"
)

type MedicationRepository struct {
	db *sql.DB
}

func NewMedicationRepository(db *sql.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// ListByUser returns all medications for a user ordered by scheduled time,
// with insertion order breaking ties. This ordering is what makes "next due"
// deterministic.
func (r *MedicationRepository) ListByUser(ctx context.Context, userID string) ([]model.Medication, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, name, scheduled_time, image, taken, postponed, created_at, updated_at
		 FROM medications
		 WHERE user_id = ?
		 ORDER BY scheduled_time ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	medications := make([]model.Medication, 0)
	for rows.Next() {
		medication, scanErr := scanMedication(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		medications = append(medications, *medication)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medications: %w", err)
	}

	return medications, nil
}

func (r *MedicationRepository) Get(ctx context.Context, userID string, id int64) (*model.Medication, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, name, scheduled_time, image, taken, postponed, created_at, updated_at
		 FROM medications
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	medication, err := scanMedication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return medication, nil
}

func (r *MedicationRepository) Insert(ctx context.Context, medication *model.Medication) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO medications (user_id, name, scheduled_time, image, taken, postponed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		medication.UserID,
		medication.Name,
		medication.ScheduledTime,
		medication.Image,
		boolToInt(medication.Taken),
		boolToInt(medication.Postponed),
		medication.CreatedAt.UTC().Format(time.RFC3339Nano),
		medication.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("medication insert id: %w", err)
	}
	medication.ID = id
	return nil
}

// UpdateFlags is the only mutation this scope applies to an existing
// medication: the taken/postponed pair.
func (r *MedicationRepository) UpdateFlags(ctx context.Context, userID string, id int64, taken, postponed bool) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE medications
		 SET taken = ?, postponed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		boolToInt(taken),
		boolToInt(postponed),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update medication flags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("medication rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedication(s scanner) (*model.Medication, error) {
	var medication model.Medication
	var taken int
	var postponed int
	var createdAt string
	var updatedAt string
	if err := s.Scan(
		&medication.ID,
		&medication.UserID,
		&medication.Name,
		&medication.ScheduledTime,
		&medication.Image,
		&taken,
		&postponed,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan medication: %w", err)
	}

	medication.Taken = taken != 0
	medication.Postponed = postponed != 0

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse medication created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse medication updated_at: %w", err)
	}
	medication.CreatedAt = parsedCreatedAt
	medication.UpdatedAt = parsedUpdatedAt

	return &medication, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
