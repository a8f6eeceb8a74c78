package notify

import (
	"context"

	"go.uber.org/zap"

	"okusuri/backend/internal/model"
)

// SMSSender is simulated: it logs the would-be message and reports success.
// No SMS provider was ever wired up; keeping the channel behind the Sender
// interface leaves a slot for a real one.
type SMSSender struct {
	logger *zap.Logger
}

func NewSMSSender(logger *zap.Logger) *SMSSender {
	return &SMSSender{logger: logger}
}

func (s *SMSSender) Send(ctx context.Context, contact model.FamilyContact, subject, message string) error {
	s.logger.Info("SMS送信 (simulated)",
		zap.String("phone", contact.Phone),
		zap.String("contact_name", contact.Name),
		zap.String("subject", subject),
		zap.String("message", message),
	)
	return nil
}
