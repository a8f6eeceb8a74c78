// Package reminder owns the medication reminder lifecycle: idle while the
// home view shows, reminding while a dose is presented, dispatching while
// the family fan-out is in flight, then back to idle. Postponing re-enters
// idle and arms a deferred re-reminder.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"okusuri/backend/internal/model"
	"okusuri/backend/internal/notify"
	"okusuri/backend/internal/push"
)

// Voice is the single voice-output resource, arbitrated elsewhere by the
// speech queue. The orchestrator never talks to a synthesizer directly.
type Voice interface {
	Announce(text string, priority bool)
}

// Dispatcher fans a message out to family contacts and reports per-channel
// results. It must complete even when every attempt fails.
type Dispatcher interface {
	Notify(ctx context.Context, contacts []model.FamilyContact, medicationName string, template notify.Template) []model.NotificationResult
}

// MedicationStore persists the taken/postponed flags. Updates are applied
// locally first; a store failure is logged, not rolled back.
type MedicationStore interface {
	UpdateFlags(ctx context.Context, userID string, id int64, taken, postponed bool) error
}

type Timing struct {
	InactivityWindow time.Duration
	PostponeDelay    time.Duration
	SnoozeDelay      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		InactivityWindow: 30 * time.Second,
		PostponeDelay:    30 * time.Minute,
		SnoozeDelay:      5 * time.Minute,
	}
}

type Snapshot struct {
	State        string                     `json:"state"`
	Current      *model.Medication          `json:"current,omitempty"`
	Elapsed      string                     `json:"elapsed,omitempty"`
	AllTaken     bool                       `json:"allTaken"`
	Medications  []model.Medication         `json:"medications"`
	Results      []model.NotificationResult `json:"notificationResults,omitempty"`
	SuccessCount int                        `json:"successCount"`
	TotalCount   int                        `json:"totalCount"`
}

type Orchestrator struct {
	mu sync.Mutex

	userID      string
	medications []*model.Medication
	contacts    []model.FamilyContact
	state       string
	current     *model.Medication
	lastResults []model.NotificationResult

	dispatcher Dispatcher
	voice      Voice
	store      MedicationStore
	pushCh     push.Channel // nil when the platform capability is absent
	inactivity *InactivityTimer
	timing     Timing
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(
	userID string,
	medications []model.Medication,
	contacts []model.FamilyContact,
	dispatcher Dispatcher,
	voice Voice,
	store MedicationStore,
	pushCh push.Channel,
	timing Timing,
	logger *zap.Logger,
) *Orchestrator {
	o := &Orchestrator{
		userID:     userID,
		contacts:   contacts,
		state:      model.ReminderIdle,
		dispatcher: dispatcher,
		voice:      voice,
		store:      store,
		pushCh:     pushCh,
		timing:     timing,
		logger:     logger,
		now:        time.Now,
	}
	o.setMedications(medications)
	o.inactivity = NewInactivityTimer(timing.InactivityWindow, o.onInactivityTimeout)
	return o
}

func (o *Orchestrator) setMedications(medications []model.Medication) {
	list := make([]*model.Medication, 0, len(medications))
	for i := range medications {
		copied := medications[i]
		list = append(list, &copied)
	}
	o.medications = list
}

// ReplaceMedications swaps the list, e.g. after a scan import. The current
// reminder is dropped if its medication disappeared.
func (o *Orchestrator) ReplaceMedications(medications []model.Medication) {
	o.mu.Lock()
	defer o.mu.Unlock()

	currentID := int64(-1)
	if o.current != nil {
		currentID = o.current.ID
	}
	o.setMedications(medications)

	o.current = nil
	for _, medication := range o.medications {
		if medication.ID == currentID {
			o.current = medication
			return
		}
	}
	if currentID >= 0 && o.state == model.ReminderReminding {
		o.state = model.ReminderIdle
		o.inactivity.Stop()
	}
}

// NextDue returns the first medication in list order that is not yet taken.
// List order already encodes scheduled-time order, so ties between identical
// times fall back to insertion order.
func (o *Orchestrator) NextDue() *model.Medication {
	o.mu.Lock()
	defer o.mu.Unlock()
	if medication := o.nextDueLocked(); medication != nil {
		copied := *medication
		return &copied
	}
	return nil
}

func (o *Orchestrator) nextDueLocked() *model.Medication {
	for _, medication := range o.medications {
		if !medication.Taken {
			return medication
		}
	}
	return nil
}

// StartReminder promotes the next due medication to current and enters
// reminding. Returns false when everything is already taken or a reminder
// or dispatch is already underway.
func (o *Orchestrator) StartReminder(ctx context.Context) bool {
	o.mu.Lock()
	if o.state != model.ReminderIdle {
		o.mu.Unlock()
		return false
	}
	medication := o.nextDueLocked()
	if medication == nil {
		o.mu.Unlock()
		return false
	}
	o.current = medication
	o.state = model.ReminderReminding
	name := medication.Name
	scheduled := medication.ScheduledTime
	id := medication.ID
	o.mu.Unlock()

	o.inactivity.Start()
	o.voice.Announce(fmt.Sprintf("お薬を飲む時間です。%sをお飲みください。", name), true)

	if o.pushCh != nil {
		notification := model.PushNotification{
			MedicationID:     id,
			NotificationType: model.NotificationTypeReminder,
			DeepLink:         fmt.Sprintf("okusuri://medication/%d", id),
			Title:            "お薬の時間です",
			Body:             fmt.Sprintf("%s（%s）", name, scheduled),
		}
		if err := o.pushCh.Schedule(ctx, o.userID, notification); err != nil {
			o.logger.Warn("schedule push notification",
				zap.Int64("medication_id", id),
				zap.Error(err),
			)
		}
	}

	o.logger.Info("reminder started",
		zap.String("user_id", o.userID),
		zap.Int64("medication_id", id),
		zap.String("scheduled_time", scheduled),
	)
	return true
}

// MarkTaken records the dose, notifies the family and returns to idle.
// A second call for an already-taken medication, or any call while a
// dispatch is in flight, is a no-op; dispatch must not run twice for one
// dose no matter how fast the button is tapped.
func (o *Orchestrator) MarkTaken(ctx context.Context) Snapshot {
	o.mu.Lock()
	if o.current == nil || o.current.Taken || o.state == model.ReminderDispatching {
		o.logger.Debug("taken ignored",
			zap.String("user_id", o.userID),
			zap.String("state", o.state),
		)
		snapshot := o.snapshotLocked()
		o.mu.Unlock()
		return snapshot
	}

	medication := o.current
	medication.Taken = true
	medication.UpdatedAt = o.now().UTC()
	o.state = model.ReminderDispatching
	contacts := append([]model.FamilyContact(nil), o.contacts...)
	name := medication.Name
	id := medication.ID
	o.mu.Unlock()

	o.inactivity.Stop()

	// Local state is authoritative; persistence and push are best-effort.
	if err := o.store.UpdateFlags(ctx, o.userID, id, true, medication.Postponed); err != nil {
		o.logger.Error("persist taken flag", zap.Int64("medication_id", id), zap.Error(err))
	}
	if o.pushCh != nil {
		if err := o.pushCh.Cancel(ctx, o.userID, id); err != nil {
			o.logger.Warn("cancel push notification", zap.Int64("medication_id", id), zap.Error(err))
		}
	}

	results := o.dispatcher.Notify(ctx, contacts, name, notify.TemplateTaken)

	o.mu.Lock()
	o.lastResults = results
	o.state = model.ReminderIdle
	o.current = nil
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.logger.Info("medication taken",
		zap.String("user_id", o.userID),
		zap.Int64("medication_id", id),
		zap.Int("notified", snapshot.SuccessCount),
		zap.Int("attempted", snapshot.TotalCount),
	)
	return snapshot
}

// MarkPostponed defers the dose: the family is told, state re-enters idle,
// and a one-shot re-reminder fires after the postpone delay if the dose is
// still untaken by then.
func (o *Orchestrator) MarkPostponed(ctx context.Context) Snapshot {
	o.mu.Lock()
	if o.current == nil || o.current.Taken || o.state == model.ReminderDispatching {
		o.logger.Debug("postpone ignored",
			zap.String("user_id", o.userID),
			zap.String("state", o.state),
		)
		snapshot := o.snapshotLocked()
		o.mu.Unlock()
		return snapshot
	}

	medication := o.current
	medication.Postponed = true
	medication.UpdatedAt = o.now().UTC()
	o.state = model.ReminderDispatching
	contacts := append([]model.FamilyContact(nil), o.contacts...)
	name := medication.Name
	id := medication.ID
	o.mu.Unlock()

	o.inactivity.Stop()

	if err := o.store.UpdateFlags(ctx, o.userID, id, false, true); err != nil {
		o.logger.Error("persist postponed flag", zap.Int64("medication_id", id), zap.Error(err))
	}

	results := o.dispatcher.Notify(ctx, contacts, name, notify.TemplatePostponed)

	o.mu.Lock()
	o.lastResults = results
	o.state = model.ReminderIdle
	o.current = nil
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.scheduleReReminder(id, o.timing.PostponeDelay)

	o.logger.Info("medication postponed",
		zap.String("user_id", o.userID),
		zap.Int64("medication_id", id),
		zap.Duration("re_reminder_in", o.timing.PostponeDelay),
	)
	return snapshot
}

// scheduleReReminder arms a one-shot timer that restarts the reminder only
// if the medication is still untaken when it fires.
func (o *Orchestrator) scheduleReReminder(medicationID int64, delay time.Duration) {
	time.AfterFunc(delay, func() {
		o.mu.Lock()
		var pending *model.Medication
		for _, medication := range o.medications {
			if medication.ID == medicationID {
				pending = medication
				break
			}
		}
		stillDue := pending != nil && !pending.Taken
		o.mu.Unlock()

		if !stillDue {
			return
		}
		o.StartReminder(context.Background())
	})
}

// onInactivityTimeout re-prompts if the same reminder is still on screen.
// It never changes taken/postponed state by itself.
func (o *Orchestrator) onInactivityTimeout() {
	o.mu.Lock()
	if o.state != model.ReminderReminding || o.current == nil {
		o.mu.Unlock()
		return
	}
	name := o.current.Name
	id := o.current.ID
	o.mu.Unlock()

	o.logger.Info("inactivity timeout",
		zap.String("user_id", o.userID),
		zap.Int64("medication_id", id),
	)
	o.voice.Announce(fmt.Sprintf("まだお薬を飲まれていません。%sをお飲みください。", name), true)
	o.inactivity.Start()
}

// HandleEvent is the single entry point for asynchronous platform events:
// notification action taps, deep links and scheduled fires all arrive here.
func (o *Orchestrator) HandleEvent(ctx context.Context, event model.ReminderEvent) (Snapshot, error) {
	switch event {
	case model.EventTakenAction:
		return o.MarkTaken(ctx), nil
	case model.EventPostponeAction:
		return o.MarkPostponed(ctx), nil
	case model.EventSnoozeAction:
		o.mu.Lock()
		var id int64 = -1
		if o.current != nil {
			id = o.current.ID
		}
		state := o.state
		o.mu.Unlock()
		if state == model.ReminderReminding && id >= 0 {
			o.inactivity.Stop()
			o.mu.Lock()
			o.state = model.ReminderIdle
			o.current = nil
			o.mu.Unlock()
			o.scheduleReReminder(id, o.timing.SnoozeDelay)
		}
		return o.Snapshot(), nil
	case model.EventReminderFired:
		o.StartReminder(ctx)
		return o.Snapshot(), nil
	default:
		return o.Snapshot(), fmt.Errorf("unknown reminder event %q", event)
	}
}

// ResetInactivity rearms the quiet window after user activity, only while a
// reminder is showing.
func (o *Orchestrator) ResetInactivity() {
	o.inactivity.Reset()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:    o.state,
		AllTaken: o.nextDueLocked() == nil,
		Results:  append([]model.NotificationResult(nil), o.lastResults...),
	}

	snapshot.Medications = make([]model.Medication, 0, len(o.medications))
	for _, medication := range o.medications {
		snapshot.Medications = append(snapshot.Medications, *medication)
	}

	if o.current != nil {
		copied := *o.current
		snapshot.Current = &copied
		snapshot.Elapsed = Elapsed(copied.ScheduledTime, o.now())
	}

	for _, result := range o.lastResults {
		snapshot.TotalCount++
		if result.Status == model.NotifyStatusSuccess {
			snapshot.SuccessCount++
		}
	}
	return snapshot
}
