// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The attendee-auth-api command keeps the Eventbrite attendee directory in sync and answers
// authentication checks over HTTP and NATS.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/cmd/attendee-auth-api/service"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/telemetry"
	logging "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	defaultPort = "8080"
	// minGracefulShutdownSeconds is the floor of the shutdown window. The default
	// window is raised to cover an in-flight refresh (service.RefreshShutdownBudget);
	// the pod's terminationGracePeriodSeconds must be above whatever is used.
	minGracefulShutdownSeconds = 25
)

// defaultGracefulShutdownSeconds covers a refresh whose pages all exhaust their retries
func defaultGracefulShutdownSeconds(refreshBudget time.Duration) int {
	seconds := int(math.Ceil(refreshBudget.Seconds())) + 5
	return max(seconds, minGracefulShutdownSeconds)
}

type flags struct {
	port                    string
	bind                    string
	gracefulShutdownSeconds int
}

func parseFlags() flags {
	var f flags

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	flagSet := pflag.NewFlagSet("attendee-auth-api", pflag.ExitOnError)
	flagSet.StringVarP(&f.port, "port", "p", port, "listen port")
	flagSet.StringVar(&f.bind, "bind", "*", "interface to bind on")
	flagSet.IntVar(&f.gracefulShutdownSeconds, "graceful-shutdown-seconds",
		defaultGracefulShutdownSeconds(service.RefreshShutdownBudget()),
		"seconds to wait for in-flight work on shutdown; the default covers a refresh exhausting its retries")
	_ = flagSet.Parse(os.Args[1:])

	return f
}

func main() {
	f := parseFlags()

	logging.InitStructureLogConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelConfig := utils.OTelConfigFromEnv()
	if otelConfig.ServiceVersion == "" {
		otelConfig.ServiceVersion = Version
	}
	otelShutdown, err := utils.SetupOTelSDKWithConfig(ctx, otelConfig)
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry SDK", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := otelShutdown(shutdownCtx); shutdownErr != nil {
			slog.ErrorContext(ctx, "error shutting down OpenTelemetry SDK", "error", shutdownErr)
		}
	}()

	slog.InfoContext(ctx, "starting attendee auth service",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
		"port", f.port,
	)

	metrics, err := telemetry.NewSyncMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.ErrorContext(ctx, "error creating sync metrics", "error", err)
		os.Exit(1)
	}

	natsClient := service.GetNATSClient(ctx)
	defer func() {
		if errClose := natsClient.Close(); errClose != nil {
			slog.ErrorContext(ctx, "error closing NATS client", "error", errClose)
		}
	}()

	var wg sync.WaitGroup

	directory, err := handleAttendeeSync(ctx, &wg, metrics)
	if err != nil {
		slog.ErrorContext(ctx, "error starting attendee sync", "error", err)
		os.Exit(1)
	}

	api := service.NewAttendeeAuthAPI(directory, natsClient.IsReady)

	if err := handleAttendeeAuthSubjects(ctx, &wg, api); err != nil {
		slog.ErrorContext(ctx, "error subscribing to attendee auth subjects", "error", err)
		os.Exit(1)
	}

	addr := ":" + f.port
	if f.bind != "*" {
		addr = net.JoinHostPort(f.bind, f.port)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           service.NewRouter(api, service.AuthService(ctx)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutdown signal received")
	case err := <-errCh:
		slog.ErrorContext(ctx, "server error", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(f.gracefulShutdownSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "HTTP server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "graceful shutdown timed out",
			"timeout_seconds", strconv.Itoa(f.gracefulShutdownSeconds),
		)
	}
}
