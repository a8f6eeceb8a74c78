package model

import "time"

const (
	MethodEmail = "email"
	MethodSMS   = "sms"
	MethodBoth  = "both"

	ContactKindFamily = "family"
	ContactKindLine   = "line"
)

type FamilyContact struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Relationship    string    `json:"relationship"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	PreferredMethod string    `json:"preferredMethod"`
	Kind            string    `json:"kind"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"createdAt"`
}

const (
	NotifyStatusSuccess = "success"
	NotifyStatusFailed  = "failed"
)

// NotificationResult is one attempted channel for one contact. A contact
// with PreferredMethod "both" yields two results per dispatch. Results are
// transient; they are kept only for the latest dispatch summary.
type NotificationResult struct {
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}
