package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Notifier delivers a message to a recipient. Implementations swallow
// delivery failures; a failed email never surfaces to the request that
// triggered it and never rolls back the state change.
type Notifier interface {
	Notify(ctx context.Context, emailTo, subject, body string) error
}

// LogNotifier is the default Notifier: it records the outgoing message
// instead of delivering it. Disabled when no sender is configured.
type LogNotifier struct {
	logger *zap.Logger
	from   string
}

// NewLogNotifier creates the notifier.
func NewLogNotifier(logger *zap.Logger, cfg config.NotificationConfig) *LogNotifier {
	return &LogNotifier{logger: logger, from: cfg.EmailFrom}
}

// Notify logs the outgoing email. Bodies can carry single-use tokens,
// so only the subject is logged at info level.
func (n *LogNotifier) Notify(_ context.Context, emailTo, subject, body string) error {
	if strings.TrimSpace(n.from) == "" {
		n.logger.Warn("email not sent; no sender configured",
			zap.String("to", emailTo),
			zap.String("subject", subject))
		return nil
	}
	n.logger.Info("sending email",
		zap.String("from", n.from),
		zap.String("to", emailTo),
		zap.String("subject", subject))
	n.logger.Debug("email body", zap.String("body", body))
	return nil
}

// NotificationService translates domain events into notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVerificationRequested, n.handleVerificationRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketResponded, n.handleTicketResponded)
}

func (n *NotificationService) handleVerificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VerificationRequestedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Click the link to verify your email: %s", payload.Token)
	n.send(ctx, payload.Email, "Verify your email", body)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Click the link to reset your password: %s?token=%s", n.cfg.ResetURL, payload.Token)
	n.send(ctx, payload.Email, "Password Reset Request", body)
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("We have received your support request: %s. We will review your request and get back to you soon.", payload.Title)
	n.send(ctx, payload.CreatedBy, "Support Request Received", body)
	return nil
}

func (n *NotificationService) handleTicketResponded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRespondedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Your request: %s\nResponse: %s", payload.Title, payload.Response)
	n.send(ctx, payload.CreatedBy, "Response to Your Support Request", body)
	return nil
}

func (n *NotificationService) send(ctx context.Context, to, subject, body string) {
	if err := n.notifier.Notify(ctx, to, subject, body); err != nil {
		n.logger.Error("notification delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
