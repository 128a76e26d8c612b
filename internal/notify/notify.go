// Package notify is the boundary adapter for the outbound notification
// collaborator. Deliveries are best-effort and always happen outside the
// transition transaction.
package notify

import (
	"context"
	"fmt"
	"strings"

	"fundlift-moderation-backend/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Notifier interface {
	// SendDecisionNotification reports a moderation decision to the
	// moderation inbox.
	SendDecisionNotification(ctx context.Context, t domain.EntityType, entityID int64, to domain.Status, reason string) error

	// SendModerationDigest delivers a scheduled scan summary.
	SendModerationDigest(ctx context.Context, subject string, lines []string) error
}

type sendGridNotifier struct {
	apiKey    string
	fromEmail string
	fromName  string
	inbox     string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName, inbox string) Notifier {
	return &sendGridNotifier{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		inbox:     inbox,
	}
}

func (s *sendGridNotifier) SendDecisionNotification(ctx context.Context, t domain.EntityType, entityID int64, to domain.Status, reason string) error {
	subject := fmt.Sprintf("[moderation] %s %d -> %s", t, entityID, to)
	body := fmt.Sprintf("Entity %s %d moved to %s.", t, entityID, to)
	if reason != "" {
		body += fmt.Sprintf("\nReason: %s", reason)
	}
	return s.send(subject, body)
}

func (s *sendGridNotifier) SendModerationDigest(ctx context.Context, subject string, lines []string) error {
	return s.send(subject, strings.Join(lines, "\n"))
}

func (s *sendGridNotifier) send(subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("Moderation", s.inbox)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

// NopNotifier discards everything; used when no API key is configured.
type NopNotifier struct{}

func (NopNotifier) SendDecisionNotification(ctx context.Context, t domain.EntityType, entityID int64, to domain.Status, reason string) error {
	return nil
}

func (NopNotifier) SendModerationDigest(ctx context.Context, subject string, lines []string) error {
	return nil
}
