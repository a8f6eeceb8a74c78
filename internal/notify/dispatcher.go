// Package notify fans a medication message out to family contacts. Each
// contact/channel attempt is independent and best-effort: a failed send is
// recorded in its result entry and never aborts the rest of the dispatch.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"okusuri/backend/internal/model"
)

type Template string

const (
	TemplateTaken     Template = "taken"
	TemplatePostponed Template = "postponed"
)

// timestampLayout mirrors the ja-JP locale string the app shows to users.
const timestampLayout = "2006/01/02 15:04"

const (
	methodLabelSMS   = "SMS"
	methodLabelEmail = "メール"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, contact model.FamilyContact, subject, message string) error
}

type Dispatcher struct {
	sms    Sender
	email  Sender
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(sms, email Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sms:    sms,
		email:  email,
		logger: logger,
		now:    time.Now,
	}
}

// Notify attempts one send per channel implied by each contact's preferred
// method, sequentially and in contact order. The timestamp is captured once
// per call so every result entry shares it.
func (d *Dispatcher) Notify(
	ctx context.Context,
	contacts []model.FamilyContact,
	medicationName string,
	template Template,
) []model.NotificationResult {
	timestamp := d.now().Format(timestampLayout)
	subject, message := buildMessage(template, medicationName, timestamp)

	results := make([]model.NotificationResult, 0, len(contacts)*2)
	for _, contact := range contacts {
		if contact.PreferredMethod == model.MethodSMS || contact.PreferredMethod == model.MethodBoth {
			results = append(results, d.attempt(ctx, d.sms, methodLabelSMS, contact, subject, message, timestamp))
		}
		if contact.Email != "" &&
			(contact.PreferredMethod == model.MethodEmail || contact.PreferredMethod == model.MethodBoth) {
			results = append(results, d.attempt(ctx, d.email, methodLabelEmail, contact, subject, message, timestamp))
		}
	}
	return results
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	sender Sender,
	methodLabel string,
	contact model.FamilyContact,
	subject, message, timestamp string,
) model.NotificationResult {
	result := model.NotificationResult{
		ContactID:   contact.ID,
		ContactName: contact.Name,
		Method:      methodLabel,
		Status:      model.NotifyStatusSuccess,
		Timestamp:   timestamp,
	}

	if err := sender.Send(ctx, contact, subject, message); err != nil {
		result.Status = model.NotifyStatusFailed
		d.logger.Warn("notification attempt failed",
			zap.String("contact_id", contact.ID),
			zap.String("method", methodLabel),
			zap.Error(err),
		)
	}
	return result
}

func buildMessage(template Template, medicationName, timestamp string) (subject, message string) {
	switch template {
	case TemplatePostponed:
		subject = "お薬延期のお知らせ"
		message = fmt.Sprintf(
			"【お薬延期のお知らせ】\n%sの服用を%sに延期しました。\n30分後に再度お知らせします。\n\n本人より自動送信",
			medicationName,
			timestamp,
		)
	default:
		subject = "お薬服用のお知らせ"
		message = fmt.Sprintf(
			"【お薬服用のお知らせ】\n%sを%sに服用しました。\n\n本人より自動送信",
			medicationName,
			timestamp,
		)
	}
	return subject, message
}
