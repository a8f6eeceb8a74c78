package model

type OnboardingStep string

const (
	StepWelcome            OnboardingStep = "welcome"
	StepPermissions        OnboardingStep = "permissions"
	StepIntroduction       OnboardingStep = "introduction"
	StepFamilySetup        OnboardingStep = "family-setup"
	StepNotificationMethod OnboardingStep = "notification-method"
	StepFamilyContact      OnboardingStep = "family-contact"
	StepLineContacts       OnboardingStep = "line-contacts"
	StepComplete           OnboardingStep = "complete"
)

// OnboardingSteps is the fixed forward order. Advance and Retreat walk this
// list, skipping contact steps based on the family setup choice.
var OnboardingSteps = []OnboardingStep{
	StepWelcome,
	StepPermissions,
	StepIntroduction,
	StepFamilySetup,
	StepNotificationMethod,
	StepFamilyContact,
	StepLineContacts,
	StepComplete,
}

const (
	PermissionCamera        = "camera"
	PermissionNotifications = "notifications"
)

const (
	FamilyMethodLine  = "line"
	FamilyMethodEmail = "email"
)

type FamilySetup struct {
	Enabled bool   `json:"enabled"`
	Method  string `json:"method,omitempty"`
}
