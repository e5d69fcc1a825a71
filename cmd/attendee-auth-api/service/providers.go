// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service wires the attendee auth dependencies and serves the operator surfaces.
package service

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/eventbrite"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/file"
	infrastructure "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

var (
	natsClient *nats.NATSClient

	natsDoOnce sync.Once
)

func natsInit(ctx context.Context) {
	natsDoOnce.Do(func() {
		config := nats.NewConfigFromEnv()
		if indexSource() == constants.IndexSourceNATS && indexCacheEnabled() {
			config.Buckets = append(config.Buckets, constants.KVBucketNameAttendeeIndex)
		}

		client, err := nats.NewClient(ctx, config)
		if err != nil {
			log.Fatalf("failed to create NATS client: %v", err)
		}
		natsClient = client
	})
}

// GetNATSClient returns the shared NATS client, connecting on first use
func GetNATSClient(ctx context.Context) *nats.NATSClient {
	natsInit(ctx)
	return natsClient
}

// AuthService initializes the authentication service implementation
func AuthService(ctx context.Context) port.Authenticator {
	var authService port.Authenticator

	authSource := os.Getenv(constants.EnvAuthSource)
	if authSource == "" {
		authSource = "jwt"
	}

	switch authSource {
	case "mock":
		slog.InfoContext(ctx, "initializing mock authentication service")
		authService = infrastructure.NewMockAuthService()
	case "jwt":
		slog.InfoContext(ctx, "initializing JWT authentication service")
		jwtAuth, err := auth.NewJWTAuth(auth.NewConfigFromEnv())
		if err != nil {
			log.Fatalf("failed to initialize JWT authentication service: %v", err)
		}
		authService = jwtAuth
	default:
		log.Fatalf("unsupported authentication service implementation: %s", authSource)
	}

	return authService
}

// AttendeeLister initializes the attendee source. gate is the process-wide admission gate.
func AttendeeLister(ctx context.Context, gate *httpclient.AdmissionGate, observer httpclient.AttemptObserver) port.AttendeeLister {
	config := eventbrite.NewConfigFromEnv()

	if config.MockMode {
		slog.InfoContext(ctx, "initializing mock attendee source", "fixture", config.MockFile)
		lister, err := infrastructure.NewAttendeeListerFromFile(config.MockFile)
		if err != nil {
			log.Fatalf("failed to load attendee fixture: %v", err)
		}
		return lister
	}

	slog.InfoContext(ctx, "initializing Eventbrite attendee source", "base_url", config.BaseURL)
	var opts []eventbrite.Option
	if observer != nil {
		opts = append(opts, eventbrite.WithObserver(observer))
	}
	client, err := eventbrite.NewClient(config, gate, opts...)
	if err != nil {
		log.Fatalf("failed to initialize Eventbrite client: %v", err)
	}
	return client
}

// MaxConcurrentCalls returns the admission gate size configured for Eventbrite calls
func MaxConcurrentCalls() int {
	return eventbrite.NewConfigFromEnv().MaxConcurrentCalls
}

// RefreshShutdownBudget bounds how long shutdown waits for an in-flight refresh:
// the first page plus one round of fanned-out pages, each with every attempt timing out.
// Listings with more pages than the gate admits at once can still take longer.
func RefreshShutdownBudget() time.Duration {
	return 2 * eventbrite.NewConfigFromEnv().PageBudget()
}

// IndexStore initializes the index persistence backend. Nil means persistence is disabled.
func IndexStore(ctx context.Context) port.AttendeeIndexStore {
	if !indexCacheEnabled() {
		slog.InfoContext(ctx, "attendee index persistence disabled")
		return nil
	}

	source := indexSource()
	if err := constants.ValidateIndexSource(source); err != nil {
		log.Fatalf("invalid index source: %v (valid: %v)", err, constants.ValidIndexSources())
	}

	switch source {
	case constants.IndexSourceFile:
		path := os.Getenv(constants.EnvIndexPath)
		if path == "" {
			path = constants.DefaultIndexPath
		}
		slog.InfoContext(ctx, "initializing file attendee index store", "path", path)
		store, err := file.NewStore(path)
		if err != nil {
			log.Fatalf("failed to initialize file index store: %v", err)
		}
		return store
	case constants.IndexSourceNATS:
		slog.InfoContext(ctx, "initializing NATS attendee index store", "bucket", constants.KVBucketNameAttendeeIndex)
		store, err := nats.NewAttendeeIndexStore(GetNATSClient(ctx))
		if err != nil {
			log.Fatalf("failed to initialize NATS index store: %v", err)
		}
		return store
	default:
		slog.InfoContext(ctx, "initializing in-memory attendee index store")
		return infrastructure.NewMemoryIndexStore()
	}
}

// EventPublisher initializes the index event publisher
func EventPublisher(ctx context.Context) port.EventPublisher {
	publisher := os.Getenv(constants.EnvEventPublisher)
	if publisher == "" {
		publisher = "nats"
	}

	switch publisher {
	case "mock":
		slog.InfoContext(ctx, "initializing mock event publisher")
		return infrastructure.NewMockEventPublisher()
	case "nats":
		slog.InfoContext(ctx, "initializing NATS event publisher", "subject", constants.IndexUpdatedSubject)
		return nats.NewEventPublisher(GetNATSClient(ctx))
	default:
		log.Fatalf("unsupported event publisher implementation: %s", publisher)
	}
	return nil
}

// RefreshInterval reads REFRESH_INTERVAL as a duration ("5m") or a number of seconds ("300")
func RefreshInterval() time.Duration {
	raw := os.Getenv(constants.EnvRefreshInterval)
	if raw == "" {
		return constants.DefaultRefreshInterval
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	log.Fatalf("invalid %s value: %s", constants.EnvRefreshInterval, raw)
	return 0
}

func indexSource() string {
	source := os.Getenv(constants.EnvIndexSource)
	if source == "" {
		source = constants.IndexSourceFile
	}
	return source
}

func indexCacheEnabled() bool {
	raw := os.Getenv(constants.EnvIndexCacheEnabled)
	if raw == "" {
		return true
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		log.Fatalf("invalid %s value: %s", constants.EnvIndexCacheEnabled, raw)
	}
	return enabled
}
