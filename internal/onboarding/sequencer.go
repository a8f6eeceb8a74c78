// Package onboarding owns the first-run step sequence: a fixed forward order
// with two conditional skips around the contact screens. Step position is
// in-memory per user; only the completion flag and the collected contacts
// are durable.
package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"okusuri/backend/internal/model"
)

const CompletedFlagKey = "onboarding_completed"

// FlagStore is the durable key-value port for the completion flag.
type FlagStore interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Set(ctx context.Context, userID, key, value string) error
}

// ContactStore persists the contacts collected during onboarding.
type ContactStore interface {
	SaveAll(ctx context.Context, contacts []model.FamilyContact) error
}

type Snapshot struct {
	CurrentStep    model.OnboardingStep  `json:"currentStep"`
	Completed      bool                  `json:"completed"`
	Permissions    map[string]bool       `json:"permissions"`
	FamilySetup    model.FamilySetup     `json:"familySetup"`
	FamilyContacts []model.FamilyContact `json:"familyContacts"`
	LineContacts   []model.FamilyContact `json:"lineContacts"`
}

// Sequencer tracks one user's position in the onboarding flow.
type Sequencer struct {
	mu sync.Mutex

	userID      string
	step        model.OnboardingStep
	completed   bool
	permissions map[string]bool
	setup       model.FamilySetup
	family      []model.FamilyContact
	line        []model.FamilyContact

	flags    FlagStore
	contacts ContactStore
}

func NewSequencer(userID string, flags FlagStore, contacts ContactStore) *Sequencer {
	return &Sequencer{
		userID: userID,
		step:   model.StepWelcome,
		permissions: map[string]bool{
			model.PermissionCamera:        false,
			model.PermissionNotifications: false,
		},
		flags:    flags,
		contacts: contacts,
	}
}

// skip reports whether a step is bypassed under the current family setup.
// The same predicate drives both directions so that a forward step followed
// by a backward step always lands on the starting point.
func (s *Sequencer) skip(step model.OnboardingStep) bool {
	switch step {
	case model.StepFamilyContact:
		return !s.setup.Enabled || s.setup.Method == model.FamilyMethodLine
	case model.StepLineContacts:
		return s.setup.Method != model.FamilyMethodLine
	default:
		return false
	}
}

func (s *Sequencer) Advance() model.OnboardingStep {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := stepIndex(s.step)
	if index < 0 || s.step == model.StepComplete {
		return s.step
	}

	next := index + 1
	for next < len(model.OnboardingSteps)-1 && s.skip(model.OnboardingSteps[next]) {
		next++
	}
	if next < len(model.OnboardingSteps) {
		s.step = model.OnboardingSteps[next]
	}
	return s.step
}

func (s *Sequencer) Retreat() model.OnboardingStep {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := stepIndex(s.step)
	if index <= 0 || s.step == model.StepComplete {
		return s.step
	}

	prev := index - 1
	for prev > 0 && s.skip(model.OnboardingSteps[prev]) {
		prev--
	}
	s.step = model.OnboardingSteps[prev]
	return s.step
}

func (s *Sequencer) SetPermission(kind string, granted bool) error {
	if kind != model.PermissionCamera && kind != model.PermissionNotifications {
		return fmt.Errorf("unknown permission kind %q", kind)
	}
	s.mu.Lock()
	s.permissions[kind] = granted
	s.mu.Unlock()
	return nil
}

// SetFamilySetup records the enablement choice. Disabling clears the method;
// the caller is expected to complete onboarding right after disabling.
func (s *Sequencer) SetFamilySetup(enabled bool, method string) error {
	if enabled && method != "" && method != model.FamilyMethodLine && method != model.FamilyMethodEmail {
		return fmt.Errorf("unknown family method %q", method)
	}
	s.mu.Lock()
	if enabled {
		s.setup = model.FamilySetup{Enabled: true, Method: method}
	} else {
		s.setup = model.FamilySetup{}
	}
	s.mu.Unlock()
	return nil
}

// AddContact appends a contact with a fresh id. Duplicate names are allowed.
func (s *Sequencer) AddContact(kind string, contact model.FamilyContact) (model.FamilyContact, error) {
	if kind != model.ContactKindFamily && kind != model.ContactKindLine {
		return model.FamilyContact{}, fmt.Errorf("unknown contact kind %q", kind)
	}
	if contact.PreferredMethod == "" {
		contact.PreferredMethod = model.MethodEmail
	}
	if contact.PreferredMethod != model.MethodEmail &&
		contact.PreferredMethod != model.MethodSMS &&
		contact.PreferredMethod != model.MethodBoth {
		return model.FamilyContact{}, fmt.Errorf("unknown preferred method %q", contact.PreferredMethod)
	}

	contact.ID = uuid.NewString()
	contact.UserID = s.userID
	contact.Kind = kind
	contact.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	if kind == model.ContactKindLine {
		contact.Position = len(s.line)
		s.line = append(s.line, contact)
	} else {
		contact.Position = len(s.family)
		s.family = append(s.family, contact)
	}
	s.mu.Unlock()
	return contact, nil
}

// Complete persists collected contacts and the completion flag, then pins
// the sequencer at the complete step. Safe to call more than once.
func (s *Sequencer) Complete(ctx context.Context) error {
	s.mu.Lock()
	all := make([]model.FamilyContact, 0, len(s.family)+len(s.line))
	all = append(all, s.family...)
	all = append(all, s.line...)
	s.mu.Unlock()

	if err := s.contacts.SaveAll(ctx, all); err != nil {
		return fmt.Errorf("save onboarding contacts: %w", err)
	}
	if err := s.flags.Set(ctx, s.userID, CompletedFlagKey, "true"); err != nil {
		return fmt.Errorf("set onboarding flag: %w", err)
	}

	s.mu.Lock()
	s.step = model.StepComplete
	s.completed = true
	s.mu.Unlock()
	return nil
}

func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	permissions := make(map[string]bool, len(s.permissions))
	for kind, granted := range s.permissions {
		permissions[kind] = granted
	}

	return Snapshot{
		CurrentStep:    s.step,
		Completed:      s.completed,
		Permissions:    permissions,
		FamilySetup:    s.setup,
		FamilyContacts: append([]model.FamilyContact(nil), s.family...),
		LineContacts:   append([]model.FamilyContact(nil), s.line...),
	}
}

// IsFirstTimeUser consults the durable flag, failing open to "first time".
func IsFirstTimeUser(ctx context.Context, flags FlagStore, userID string) bool {
	value, err := flags.Get(ctx, userID, CompletedFlagKey)
	if err != nil {
		return true
	}
	return value != "true"
}

func stepIndex(step model.OnboardingStep) int {
	for i, candidate := range model.OnboardingSteps {
		if candidate == step {
			return i
		}
	}
	return -1
}
