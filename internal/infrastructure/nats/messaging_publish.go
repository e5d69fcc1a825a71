// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// publishFunc sends raw bytes on a subject
type publishFunc func(subject string, data []byte) error

// messagingPublisher implements port.EventPublisher using NATS core publish
type messagingPublisher struct {
	ready   func(ctx context.Context) error
	publish publishFunc
}

// IndexUpdated announces a change of the attendee index content
func (m *messagingPublisher) IndexUpdated(ctx context.Context, event model.IndexUpdatedEvent) error {
	return m.send(ctx, constants.IndexUpdatedSubject, event)
}

func (m *messagingPublisher) send(ctx context.Context, subject string, message any) error {
	if err := m.ready(ctx); err != nil {
		slog.ErrorContext(ctx, "NATS client is not ready for publishing",
			"error", err,
			"subject", subject,
		)
		return errors.NewServiceUnavailable("NATS client is not ready", err)
	}

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal message to JSON",
			"error", err,
			"subject", subject,
		)
		return errors.NewUnexpected("failed to marshal message", err)
	}

	if err := m.publish(subject, data); err != nil {
		slog.ErrorContext(ctx, "failed to publish message to NATS",
			"error", err,
			"subject", subject,
		)
		return errors.NewServiceUnavailable("failed to publish message", err)
	}

	slog.DebugContext(ctx, "message published successfully",
		"subject", subject,
		"message_size", len(data),
	)

	return nil
}

// NewEventPublisher creates a port.EventPublisher backed by the client connection
func NewEventPublisher(client *NATSClient) port.EventPublisher {
	return &messagingPublisher{
		ready:   client.IsReady,
		publish: client.Publish,
	}
}
