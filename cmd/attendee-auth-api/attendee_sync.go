// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/cmd/attendee-auth-api/service"
	internalService "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/telemetry"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

// handleAttendeeSync restores the index, then runs the refresh scheduler until ctx is done
func handleAttendeeSync(ctx context.Context, wg *sync.WaitGroup, metrics *telemetry.SyncMetrics) (*internalService.AttendeeSyncService, error) {
	slog.InfoContext(ctx, "starting attendee sync")

	// one gate for every Eventbrite call in the process
	gate := httpclient.NewAdmissionGate(service.MaxConcurrentCalls())

	lister := service.AttendeeLister(ctx, gate, metrics)

	index := internalService.NewAttendeeIndex(service.IndexStore(ctx))
	if err := index.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load attendee index: %w", err)
	}

	syncService := internalService.NewAttendeeSyncService(lister, index,
		internalService.WithEventPublisher(service.EventPublisher(ctx)),
		internalService.WithSyncMetrics(metrics),
	)

	scheduler := internalService.NewRefreshScheduler(syncService, service.RefreshInterval())

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scheduler.Start(ctx); err != nil {
			slog.ErrorContext(ctx, "attendee refresh scheduler failed", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down attendee sync")
		_ = scheduler.Stop()
	}()

	return syncService, nil
}
