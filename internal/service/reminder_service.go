package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "okusuri/backend/internal/errors"
	"okusuri/backend/internal/model"
	"okusuri/backend/internal/notify"
	"okusuri/backend/internal/push"
	"okusuri/backend/internal/reminder"
	"okusuri/backend/internal/repository"
	"okusuri/backend/internal/speech"
)

// ReminderService holds one orchestrator per active user, built lazily from
// the persisted medication list and family contacts.
type ReminderService struct {
	mu            sync.Mutex
	orchestrators map[string]*reminder.Orchestrator

	medications *MedicationService
	medRepo     *repository.MedicationRepository
	contactRepo *repository.ContactRepository
	dispatcher  *notify.Dispatcher
	voice       *speech.Queue
	pushCh      push.Channel
	timing      reminder.Timing
	logger      *zap.Logger
}

func NewReminderService(
	medications *MedicationService,
	medRepo *repository.MedicationRepository,
	contactRepo *repository.ContactRepository,
	dispatcher *notify.Dispatcher,
	voice *speech.Queue,
	pushCh push.Channel,
	timing reminder.Timing,
	logger *zap.Logger,
) *ReminderService {
	s := &ReminderService{
		orchestrators: make(map[string]*reminder.Orchestrator),
		medications:   medications,
		medRepo:       medRepo,
		contactRepo:   contactRepo,
		dispatcher:    dispatcher,
		voice:         voice,
		pushCh:        pushCh,
		timing:        timing,
		logger:        logger,
	}
	medications.SetInvalidator(s.Invalidate)
	return s
}

// queueVoice adapts the speech queue to the orchestrator's voice port.
type queueVoice struct {
	queue *speech.Queue
}

func (v queueVoice) Announce(text string, priority bool) {
	v.queue.Enqueue(&speech.Item{Text: text}, priority)
}

func (s *ReminderService) orchestrator(ctx context.Context, userID string) *reminder.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.orchestrators[userID]; ok {
		return existing
	}

	medications := s.medications.ListFailOpen(ctx, userID)

	contacts, err := s.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("contact load failed, dispatching to nobody",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		contacts = []model.FamilyContact{}
	}

	orchestrator := reminder.NewOrchestrator(
		userID,
		medications,
		contacts,
		s.dispatcher,
		queueVoice{queue: s.voice},
		s.medRepo,
		s.pushCh,
		s.timing,
		s.logger.With(zap.String("user_id", userID)),
	)
	s.orchestrators[userID] = orchestrator
	return orchestrator
}

// Invalidate reloads a user's medication list into their orchestrator.
func (s *ReminderService) Invalidate(userID string) {
	s.mu.Lock()
	orchestrator, ok := s.orchestrators[userID]
	s.mu.Unlock()
	if !ok {
		return
	}
	medications := s.medications.ListFailOpen(context.Background(), userID)
	orchestrator.ReplaceMedications(medications)
}

func (s *ReminderService) State(ctx context.Context, userID string) reminder.Snapshot {
	return s.orchestrator(ctx, userID).Snapshot()
}

func (s *ReminderService) Start(ctx context.Context, userID string) (reminder.Snapshot, bool) {
	orchestrator := s.orchestrator(ctx, userID)
	started := orchestrator.StartReminder(ctx)
	return orchestrator.Snapshot(), started
}

func (s *ReminderService) MarkTaken(ctx context.Context, userID string) reminder.Snapshot {
	return s.orchestrator(ctx, userID).MarkTaken(ctx)
}

func (s *ReminderService) MarkPostponed(ctx context.Context, userID string) reminder.Snapshot {
	return s.orchestrator(ctx, userID).MarkPostponed(ctx)
}

func (s *ReminderService) ResetInactivity(ctx context.Context, userID string) {
	s.orchestrator(ctx, userID).ResetInactivity()
}

func (s *ReminderService) HandleEvent(ctx context.Context, userID string, event model.ReminderEvent) (reminder.Snapshot, *apperrors.APIError) {
	snapshot, err := s.orchestrator(ctx, userID).HandleEvent(ctx, event)
	if err != nil {
		return snapshot, apperrors.BadRequest("invalid_event", err.Error())
	}
	return snapshot, nil
}
