package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "okusuri/backend/internal/errors"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/repository"
)

const defaultMedicationImage = "/images/medication-default.png"

type MedicationService struct {
	repo   *repository.MedicationRepository
	logger *zap.Logger

	// invalidate tells the reminder layer that a user's list changed.
	invalidate func(userID string)
}

func NewMedicationService(repo *repository.MedicationRepository, logger *zap.Logger) *MedicationService {
	return &MedicationService{
		repo:       repo,
		logger:     logger,
		invalidate: func(string) {},
	}
}

// SetInvalidator wires the reminder cache refresh. Set once at startup.
func (s *MedicationService) SetInvalidator(invalidate func(userID string)) {
	s.invalidate = invalidate
}

func (s *MedicationService) List(ctx context.Context, userID string) ([]model.Medication, *apperrors.APIError) {
	medications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list medications")
	}
	return medications, nil
}

// ListFailOpen is the reminder-path read: a load failure yields an empty
// list rather than an error, so the home view degrades to "no medications"
// instead of crashing the reminder flow.
func (s *MedicationService) ListFailOpen(ctx context.Context, userID string) []model.Medication {
	medications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("medication load failed, continuing with empty list",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return []model.Medication{}
	}
	return medications
}

// AddManual expands manual form entries into one medication row per time.
// Dosage, when present, folds into the display name.
func (s *MedicationService) AddManual(ctx context.Context, userID string, entries []model.ManualMedication) ([]model.Medication, *apperrors.APIError) {
	now := time.Now().UTC()
	created := make([]model.Medication, 0)

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, apperrors.BadRequest("invalid_name", "medication name is required")
		}
		if len(entry.Times) == 0 {
			return nil, apperrors.BadRequest("invalid_times", "at least one time is required")
		}
		if entry.Dosage != "" {
			name = fmt.Sprintf("%s (%s)", name, entry.Dosage)
		}

		for _, scheduledTime := range entry.Times {
			if err := validateClockTime(scheduledTime); err != nil {
				return nil, apperrors.BadRequest("invalid_time", err.Error())
			}
			medication := model.Medication{
				UserID:        userID,
				Name:          name,
				ScheduledTime: scheduledTime,
				Image:         defaultMedicationImage,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.Insert(ctx, &medication); err != nil {
				// Insert failures roll back: nothing was appended locally.
				s.logger.Error("insert medication", zap.String("user_id", userID), zap.Error(err))
				return nil, apperrors.Internal("failed to add medication")
			}
			created = append(created, medication)
		}
	}

	s.invalidate(userID)
	return created, nil
}

// ImportScanned stores handbook scan results. A scanned time may be a
// comma-separated list; only the first entry is scheduled.
func (s *MedicationService) ImportScanned(ctx context.Context, userID string, scanned []model.ScannedMedication) ([]model.Medication, *apperrors.APIError) {
	now := time.Now().UTC()
	created := make([]model.Medication, 0, len(scanned))

	for _, entry := range scanned {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, apperrors.BadRequest("invalid_name", "medication name is required")
		}
		if entry.Dosage != "" {
			name = fmt.Sprintf("%s (%s)", name, entry.Dosage)
		}

		scheduledTime := strings.TrimSpace(strings.SplitN(entry.Time, ",", 2)[0])
		if err := validateClockTime(scheduledTime); err != nil {
			return nil, apperrors.BadRequest("invalid_time", err.Error())
		}

		medication := model.Medication{
			UserID:        userID,
			Name:          name,
			ScheduledTime: scheduledTime,
			Image:         defaultMedicationImage,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, &medication); err != nil {
			s.logger.Error("insert scanned medication", zap.String("user_id", userID), zap.Error(err))
			return nil, apperrors.Internal("failed to import medications")
		}
		created = append(created, medication)
	}

	s.invalidate(userID)
	return created, nil
}

func validateClockTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("time %q must be HH:MM", value)
	}
	return nil
}
