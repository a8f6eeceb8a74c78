package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "okusuri/backend/internal/errors"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/onboarding"
	"okusuri/backend/internal/repository"
)

// OnboardingService keeps one sequencer per user for the duration of the
// flow. Position is in-memory; completed users get a sequencer already
// pinned at the complete step.
type OnboardingService struct {
	mu         sync.Mutex
	sequencers map[string]*onboarding.Sequencer

	settings *repository.SettingsRepository
	contacts *repository.ContactRepository
	logger   *zap.Logger
}

func NewOnboardingService(
	settings *repository.SettingsRepository,
	contacts *repository.ContactRepository,
	logger *zap.Logger,
) *OnboardingService {
	return &OnboardingService{
		sequencers: make(map[string]*onboarding.Sequencer),
		settings:   settings,
		contacts:   contacts,
		logger:     logger,
	}
}

func (s *OnboardingService) sequencer(userID string) *onboarding.Sequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sequencers[userID]; ok {
		return existing
	}
	sequencer := onboarding.NewSequencer(userID, s.settings, s.contacts)
	s.sequencers[userID] = sequencer
	return sequencer
}

func (s *OnboardingService) State(ctx context.Context, userID string) onboarding.Snapshot {
	snapshot := s.sequencer(userID).Snapshot()
	if !snapshot.Completed && !onboarding.IsFirstTimeUser(ctx, s.settings, userID) {
		snapshot.Completed = true
		snapshot.CurrentStep = model.StepComplete
	}
	return snapshot
}

func (s *OnboardingService) Advance(userID string) onboarding.Snapshot {
	s.sequencer(userID).Advance()
	return s.sequencer(userID).Snapshot()
}

func (s *OnboardingService) Retreat(userID string) onboarding.Snapshot {
	s.sequencer(userID).Retreat()
	return s.sequencer(userID).Snapshot()
}

func (s *OnboardingService) SetPermission(userID, kind string, granted bool) (onboarding.Snapshot, *apperrors.APIError) {
	if err := s.sequencer(userID).SetPermission(kind, granted); err != nil {
		return onboarding.Snapshot{}, apperrors.BadRequest("invalid_permission", err.Error())
	}
	return s.sequencer(userID).Snapshot(), nil
}

func (s *OnboardingService) SetFamilySetup(userID string, enabled bool, method string) (onboarding.Snapshot, *apperrors.APIError) {
	if err := s.sequencer(userID).SetFamilySetup(enabled, method); err != nil {
		return onboarding.Snapshot{}, apperrors.BadRequest("invalid_family_setup", err.Error())
	}
	return s.sequencer(userID).Snapshot(), nil
}

func (s *OnboardingService) AddContact(userID, kind string, contact model.FamilyContact) (model.FamilyContact, *apperrors.APIError) {
	added, err := s.sequencer(userID).AddContact(kind, contact)
	if err != nil {
		return model.FamilyContact{}, apperrors.BadRequest("invalid_contact", err.Error())
	}
	return added, nil
}

func (s *OnboardingService) Complete(ctx context.Context, userID string) (onboarding.Snapshot, *apperrors.APIError) {
	if err := s.sequencer(userID).Complete(ctx); err != nil {
		s.logger.Error("complete onboarding", zap.String("user_id", userID), zap.Error(err))
		return onboarding.Snapshot{}, apperrors.Internal("failed to complete onboarding")
	}
	return s.sequencer(userID).Snapshot(), nil
}

func (s *OnboardingService) Contacts(ctx context.Context, userID string) ([]model.FamilyContact, *apperrors.APIError) {
	contacts, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list contacts")
	}
	return contacts, nil
}
