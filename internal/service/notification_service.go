package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
)

// NotificationService delivers one-time codes and reset tokens emitted by
// the auth flows. Actual channels (SMS, email) are deployment concerns; the
// stubs here log what a real sender would transmit.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSignupInitiated, n.handleSignupInitiated)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
	n.dispatcher.Subscribe(events.EventUserSuspended, n.handleUserSuspended)
}

func (n *NotificationService) handleSignupInitiated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SignupInitiatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("SignupInitiated", zap.String("user_id", event.UserID))
	n.sendCodeStub(ctx, payload.Identity, "verification code")
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("PasswordResetRequested", zap.String("user_id", event.UserID))
	n.sendCodeStub(ctx, payload.Identity, "password reset link")
	return nil
}

func (n *NotificationService) handlePasswordChanged(_ context.Context, event events.Event) error {
	n.logger.Info("PasswordChanged", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleUserSuspended(_ context.Context, event events.Event) error {
	n.logger.Info("UserSuspended", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendCodeStub(_ context.Context, identity, kind string) {
	channel := "sms"
	sender := n.cfg.SMSSender
	if strings.Contains(identity, "@") {
		channel = "email"
		sender = n.cfg.EmailFrom
	}
	if strings.TrimSpace(sender) == "" {
		return
	}
	// the raw code/token is intentionally not logged
	n.logger.Debug("sendCodeStub",
		zap.String("channel", channel),
		zap.String("from", sender),
		zap.String("kind", kind))
}
