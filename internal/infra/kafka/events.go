package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(accountID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLoginSucceeded publishes auth.login.succeeded events.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Username  string    `json:"username"`
		ViaOTP    bool      `json:"via_otp"`
		IPAddress string    `json:"ip_address,omitempty"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		ViaOTP:    event.ViaOTP,
		IPAddress: event.IPAddress,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.login.succeeded", event.AccountID, event.At, payload)
}

// PublishLoginFailed publishes auth.login.failed events.
func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id,omitempty"`
		Username  string    `json:"username"`
		Reason    string    `json:"reason"`
		IPAddress string    `json:"ip_address,omitempty"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		Reason:    event.Reason,
		IPAddress: event.IPAddress,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.login.failed", event.AccountID, event.At, payload)
}

// PublishAccountLocked publishes auth.account.locked events.
func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Username  string    `json:"username"`
		Attempts  int       `json:"attempts"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		Attempts:  event.Attempts,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.account.locked", event.AccountID, event.At, payload)
}

// PublishPasswordChanged publishes auth.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Username  string    `json:"username"`
		ChangedBy string    `json:"changed_by"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		ChangedBy: event.ChangedBy,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.changed", event.AccountID, event.At, payload)
}

// PublishCredentialReset publishes auth.credential.reset events.
func (p *EventPublisher) PublishCredentialReset(ctx context.Context, event domain.CredentialResetEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Username  string    `json:"username"`
		ResetBy   string    `json:"reset_by"`
		ViaOTP    bool      `json:"via_otp"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		ResetBy:   event.ResetBy,
		ViaOTP:    event.ViaOTP,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.credential.reset", event.AccountID, event.At, payload)
}

// PublishAccountLifecycle publishes auth.account.lifecycle events.
func (p *EventPublisher) PublishAccountLifecycle(ctx context.Context, event domain.AccountLifecycleEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Username  string    `json:"username"`
		Action    string    `json:"action"`
		ActorName string    `json:"actor_name"`
		At        time.Time `json:"at"`
	}{
		AccountID: event.AccountID,
		Username:  event.Username,
		Action:    event.Action,
		ActorName: event.ActorName,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.account.lifecycle", event.AccountID, event.At, payload)
}
