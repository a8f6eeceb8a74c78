package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"okusuri/backend/internal/model"
)

// EmailSender posts to the notification relay that performs the actual
// delivery. The relay answers 200 with {"status": "success"} on success.
type EmailSender struct {
	relayURL string
	client   *http.Client
}

func NewEmailSender(relayURL string) *EmailSender {
	return &EmailSender{
		relayURL: relayURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type emailRelayRequest struct {
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	ContactName string `json:"contact_name"`
}

type emailRelayResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *EmailSender) Send(ctx context.Context, contact model.FamilyContact, subject, message string) error {
	if contact.Email == "" {
		return fmt.Errorf("contact %s has no email address", contact.ID)
	}

	payload, err := json.Marshal(emailRelayRequest{
		ToEmail:     contact.Email,
		Subject:     subject,
		Message:     message,
		ContactName: contact.Name,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email relay returned %d", resp.StatusCode)
	}

	var relayResp emailRelayResponse
	if err := json.NewDecoder(resp.Body).Decode(&relayResp); err != nil {
		return fmt.Errorf("decode email relay response: %w", err)
	}
	if relayResp.Status != "success" {
		return fmt.Errorf("email relay rejected send: %s", relayResp.Detail)
	}
	return nil
}
