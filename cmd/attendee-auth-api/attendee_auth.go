// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/cmd/attendee-auth-api/service"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// requestTimeout bounds one request/reply; a refresh may retry several pages.
// Shutdown does not wait for request handlers, only for the scheduled cycle.
const requestTimeout = 2 * time.Minute

// handleAttendeeAuthSubjects subscribes the API to the check, refresh and info subjects
func handleAttendeeAuthSubjects(ctx context.Context, wg *sync.WaitGroup, api *service.AttendeeAuthAPI) error {
	natsClient := service.GetNATSClient(ctx)

	subjects := []string{
		constants.AuthCheckSubject,
		constants.AuthRefreshSubject,
		constants.AuthInfoSubject,
	}

	subscriptions := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, subErr := natsClient.QueueSubscribe(
			subject,
			constants.AttendeeAuthAPIQueue,
			func(msg *nats.Msg) {
				select {
				case <-ctx.Done():
					slog.InfoContext(ctx, "rejecting message - service shutting down",
						"subject", msg.Subject)
					return
				default:
				}

				// Not derived from the shutdown context so a running request can answer
				msgCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()

				if handleErr := api.HandleMessage(msgCtx, msg); handleErr != nil {
					slog.ErrorContext(msgCtx, "failed to answer attendee auth request",
						"error", handleErr,
						"subject", msg.Subject)
				}
			},
		)
		if subErr != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, subErr)
		}
		subscriptions = append(subscriptions, sub)
		slog.InfoContext(ctx, "subscribed to attendee auth subject",
			"subject", subject,
			"queue", constants.AttendeeAuthAPIQueue)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "draining attendee auth subscriptions")
		for _, sub := range subscriptions {
			if err := sub.Drain(); err != nil {
				slog.WarnContext(ctx, "failed to drain subscription", "subject", sub.Subject, "error", err)
			}
		}
	}()

	return nil
}
