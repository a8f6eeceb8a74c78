package model

const (
	ReminderIdle        = "idle"
	ReminderReminding   = "reminding"
	ReminderDispatching = "dispatching"
)

// ReminderEvent is the single inbound event enum for asynchronous platform
// callbacks (notification action taps, deep links, scheduled fires).
type ReminderEvent string

const (
	EventTakenAction    ReminderEvent = "taken_action"
	EventPostponeAction ReminderEvent = "postpone_action"
	EventSnoozeAction   ReminderEvent = "snooze_action"
	EventReminderFired  ReminderEvent = "reminder_fired"
)

const (
	NotificationTypeReminder = "MEDICATION_REMINDER"
	NotificationTypeCancel   = "MEDICATION_CANCEL"
)

// PushNotification is the payload handed to the platform push channel.
type PushNotification struct {
	MedicationID     int64  `json:"medicationId"`
	NotificationType string `json:"notificationType"`
	DeepLink         string `json:"deepLink"`
	Title            string `json:"title,omitempty"`
	Body             string `json:"body,omitempty"`
}
